// Package seed creates demo data: users, communities, threads with nested reply
// chains and likes. It is intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"threadline/internal/models"
	"threadline/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// FactoryOptions tunes generated content.
type FactoryOptions struct {
	// MaxDays spreads created_at over the last MaxDays days.
	MaxDays int
	// Seed makes output reproducible when non-zero.
	Seed int64
}

// Factory builds domain entities and persists them through the repositories, so
// children edges and feed cache generations stay consistent with API writes.
type Factory struct {
	db          *gorm.DB
	threads     repository.ThreadRepository
	communities repository.CommunityRepository
	faker       *gofakeit.Faker
	rng         *rand.Rand
	opts        FactoryOptions
}

func NewFactory(db *gorm.DB, opts FactoryOptions) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	return &Factory{
		db:          db,
		threads:     repository.NewThreadRepository(db),
		communities: repository.NewCommunityRepository(db),
		faker:       gofakeit.New(seed),
		rng:         rand.New(rand.NewSource(seed)),
		opts:        opts,
	}
}

var handleUnsafe = regexp.MustCompile(`[^a-z0-9_]`)

// handle turns fake usernames into valid lowercase handles.
func (f *Factory) handle(base string) string {
	h := handleUnsafe.ReplaceAllString(strings.ToLower(base), "")
	if len(h) > 22 {
		h = h[:22]
	}
	return fmt.Sprintf("%s_%d", h, f.faker.Number(1000, 9999))
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rng.Int63n(int64(f.opts.MaxDays) * int64(24*time.Hour)))
	return time.Now().Add(-back).Truncate(time.Second)
}

// text returns a sentence that fits in a thread.
func (f *Factory) text(words int) string {
	s := f.faker.Sentence(words)
	for utf8.RuneCountInString(s) > models.MaxThreadLength {
		r := []rune(s)
		s = string(r[:models.MaxThreadLength])
	}
	return s
}

// CreateUser persists an onboarded user. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		ExternalID: "seed_" + f.faker.UUID(),
		Name:       f.faker.Name(),
		Username:   f.handle(f.faker.Username()),
		Bio:        f.text(10),
		Image:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Onboarded:  true,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreateCommunity persists a community owned by owner; the owner becomes a member.
func (f *Factory) CreateCommunity(ctx context.Context, owner *models.User, overrides ...func(*models.Community)) (*models.Community, error) {
	name := f.faker.HipsterWord() + " " + f.faker.Noun()
	community := &models.Community{
		ExternalID:  "seed_org_" + f.faker.UUID(),
		Name:        name,
		Username:    f.handle(name),
		Image:       fmt.Sprintf("https://picsum.photos/seed/%s/200/200", f.faker.UUID()),
		Bio:         f.text(12),
		CreatedByID: owner.ID,
	}
	for _, override := range overrides {
		override(community)
	}
	if err := f.communities.Create(ctx, community); err != nil {
		return nil, err
	}
	return community, nil
}

// Join adds user to community.
func (f *Factory) Join(ctx context.Context, community *models.Community, user *models.User) error {
	return f.communities.AddMember(ctx, community.ID, user.ID)
}

// CreateRoot persists a top-level thread. community may be nil.
func (f *Factory) CreateRoot(ctx context.Context, author *models.User, community *models.Community, overrides ...func(*models.Thread)) (*models.Thread, error) {
	thread := &models.Thread{
		Text:      f.text(f.faker.Number(4, 24)),
		AuthorID:  author.ID,
		CreatedAt: f.pastTime(),
	}
	if community != nil {
		thread.CommunityID = &community.ID
	}
	if f.rng.Intn(4) == 0 {
		thread.MediaURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID())
	}
	for _, override := range overrides {
		override(thread)
	}
	if err := f.threads.Create(ctx, thread); err != nil {
		return nil, err
	}
	return thread, nil
}

// CreateReply persists a reply to parent, created after it.
func (f *Factory) CreateReply(ctx context.Context, author *models.User, parent *models.Thread) (*models.Thread, error) {
	parentID := parent.ID
	at := parent.CreatedAt.Add(time.Duration(1+f.rng.Intn(180)) * time.Minute)
	if now := time.Now(); at.After(now) {
		at = now
	}
	reply := &models.Thread{
		Text:        f.text(f.faker.Number(3, 16)),
		AuthorID:    author.ID,
		CommunityID: parent.CommunityID,
		ParentID:    &parentID,
		CreatedAt:   at,
	}
	if err := f.threads.CreateReply(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// CreateReplyChain replies depth times, each reply answering the previous one.
// Authors rotate through authors. It returns the chain top-down, root excluded.
func (f *Factory) CreateReplyChain(ctx context.Context, root *models.Thread, authors []*models.User, depth int) ([]*models.Thread, error) {
	if len(authors) == 0 {
		return nil, fmt.Errorf("reply chain needs at least one author")
	}
	chain := make([]*models.Thread, 0, depth)
	parent := root
	for i := range depth {
		reply, err := f.CreateReply(ctx, authors[i%len(authors)], parent)
		if err != nil {
			return chain, err
		}
		chain = append(chain, reply)
		parent = reply
	}
	return chain, nil
}

// Like records user's like on thread.
func (f *Factory) Like(ctx context.Context, user *models.User, thread *models.Thread) error {
	return f.threads.Like(ctx, user.ID, thread.ID)
}

// pick returns a random element of users other than skip when possible.
func (f *Factory) pick(users []*models.User, skip uint) *models.User {
	for range 4 {
		u := users[f.rng.Intn(len(users))]
		if u.ID != skip {
			return u
		}
	}
	return users[f.rng.Intn(len(users))]
}
