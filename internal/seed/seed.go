package seed

import (
	"context"
	"fmt"

	"threadline/internal/middleware"
	"threadline/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers       int
	NumCommunities int
	NumThreads     int
	// MaxReplyDepth bounds the longest reply chain under a root thread.
	MaxReplyDepth int
	// LikeRatio is the chance, in percent, that a given user likes a given root.
	LikeRatio int
	Factory   FactoryOptions
}

// DefaultOptions returns a small but fully connected data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:       25,
		NumCommunities: 4,
		NumThreads:     80,
		MaxReplyDepth:  6,
		LikeRatio:      15,
	}
}

// Result counts what a run created.
type Result struct {
	Users       []*models.User
	Communities []*models.Community
	Roots       []*models.Thread
	Replies     int
	Likes       int
}

// Seeder populates a database.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts.Factory), opts: opts}
}

// ClearAll removes every row the application owns.
func (s *Seeder) ClearAll() error {
	tx := s.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{
		&models.ThreadLike{},
		&models.ThreadEdge{},
		&models.Thread{},
		&models.CommunityMember{},
		&models.Community{},
		&models.User{},
	} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	middleware.Logger.Info("seed: database cleared")
	return nil
}

// Run creates users, communities with members, root threads, reply trees and likes.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	if s.opts.NumUsers < 1 {
		return nil, fmt.Errorf("seed needs at least one user")
	}
	res := &Result{}
	f := s.factory

	for range s.opts.NumUsers {
		u, err := f.CreateUser()
		if err != nil {
			return res, err
		}
		res.Users = append(res.Users, u)
	}

	for range s.opts.NumCommunities {
		owner := f.pick(res.Users, 0)
		c, err := f.CreateCommunity(ctx, owner)
		if err != nil {
			return res, err
		}
		for _, u := range res.Users {
			if u.ID != owner.ID && f.rng.Intn(3) == 0 {
				if err := f.Join(ctx, c, u); err != nil {
					return res, err
				}
			}
		}
		res.Communities = append(res.Communities, c)
	}

	for range s.opts.NumThreads {
		author := f.pick(res.Users, 0)
		var community *models.Community
		if len(res.Communities) > 0 && f.rng.Intn(3) == 0 {
			community = res.Communities[f.rng.Intn(len(res.Communities))]
		}
		root, err := f.CreateRoot(ctx, author, community)
		if err != nil {
			return res, err
		}
		res.Roots = append(res.Roots, root)

		n, err := s.replyTree(ctx, root, res.Users)
		res.Replies += n
		if err != nil {
			return res, err
		}

		for _, u := range res.Users {
			if f.rng.Intn(100) < s.opts.LikeRatio {
				if err := f.Like(ctx, u, root); err != nil {
					return res, err
				}
				res.Likes++
			}
		}
	}

	middleware.Logger.Info("seed: run complete",
		"users", len(res.Users),
		"communities", len(res.Communities),
		"roots", len(res.Roots),
		"replies", res.Replies,
		"likes", res.Likes)
	return res, nil
}

// replyTree grows a few direct replies under root, some with a conversation chain below.
func (s *Seeder) replyTree(ctx context.Context, root *models.Thread, users []*models.User) (int, error) {
	f := s.factory
	created := 0
	for range f.rng.Intn(4) {
		reply, err := f.CreateReply(ctx, f.pick(users, root.AuthorID), root)
		if err != nil {
			return created, err
		}
		created++

		if s.opts.MaxReplyDepth <= 1 || f.rng.Intn(2) == 0 {
			continue
		}
		// A back-and-forth between the replier and the root author.
		depth := 1 + f.rng.Intn(s.opts.MaxReplyDepth-1)
		authors := []*models.User{f.pick(users, reply.AuthorID), f.pick(users, 0)}
		chain, err := f.CreateReplyChain(ctx, reply, authors, depth)
		created += len(chain)
		if err != nil {
			return created, err
		}
	}
	return created, nil
}
