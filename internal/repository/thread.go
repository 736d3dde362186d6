package repository

import (
	"context"

	"threadline/internal/cache"
	"threadline/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ThreadRepository reads and writes threads, their children edges and their likes.
type ThreadRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Thread, error)
	FindByIDs(ctx context.Context, ids []uint) ([]*models.Thread, error)
	ChildIDs(ctx context.Context, parentIDs []uint) (map[uint][]uint, error)
	LikerIDs(ctx context.Context, threadIDs []uint) (map[uint][]uint, error)

	ListRoots(ctx context.Context, offset, limit int) ([]*models.Thread, error)
	CountRoots(ctx context.Context) (int64, error)
	ListRootsByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]*models.Thread, error)
	CountRootsByAuthor(ctx context.Context, authorID uint) (int64, error)
	ListRootsByCommunity(ctx context.Context, communityID uint, offset, limit int) ([]*models.Thread, error)
	CountRootsByCommunity(ctx context.Context, communityID uint) (int64, error)
	IDsByAuthor(ctx context.Context, authorID uint) ([]uint, error)
	RootIDsByCommunity(ctx context.Context, communityID uint) ([]uint, error)

	Create(ctx context.Context, thread *models.Thread) error
	CreateReply(ctx context.Context, reply *models.Thread) error

	IsLiked(ctx context.Context, userID, threadID uint) (bool, error)
	Like(ctx context.Context, userID, threadID uint) error
	Unlike(ctx context.Context, userID, threadID uint) error

	DescendantIDs(ctx context.Context, rootIDs []uint) ([]uint, error)
	DeleteCascade(ctx context.Context, ids []uint) error
}

type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository creates a new thread repository
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) withRefs(ctx context.Context) *gorm.DB {
	return readDB(r.db).WithContext(ctx).Preload("Author").Preload("Community")
}

func (r *threadRepository) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	var thread models.Thread
	if err := r.withRefs(ctx).First(&thread, id).Error; err != nil {
		return nil, lookupError("Thread", id, err)
	}
	return &thread, nil
}

// FindByIDs returns the threads that exist among ids. Missing ids are simply absent.
func (r *threadRepository) FindByIDs(ctx context.Context, ids []uint) ([]*models.Thread, error) {
	if len(ids) == 0 {
		return []*models.Thread{}, nil
	}
	var threads []*models.Thread
	if err := r.withRefs(ctx).Where("id IN ?", ids).Find(&threads).Error; err != nil {
		return nil, models.NewStoreError("load threads", err)
	}
	return threads, nil
}

// ChildIDs returns each parent's stored children in insertion order.
func (r *threadRepository) ChildIDs(ctx context.Context, parentIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(parentIDs))
	if len(parentIDs) == 0 {
		return out, nil
	}
	var edges []models.ThreadEdge
	err := readDB(r.db).WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order("created_at ASC").Order("child_id ASC").
		Find(&edges).Error
	if err != nil {
		return nil, models.NewStoreError("load thread children", err)
	}
	for _, e := range edges {
		out[e.ParentID] = append(out[e.ParentID], e.ChildID)
	}
	return out, nil
}

func (r *threadRepository) LikerIDs(ctx context.Context, threadIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(threadIDs))
	if len(threadIDs) == 0 {
		return out, nil
	}
	var likes []models.ThreadLike
	err := readDB(r.db).WithContext(ctx).
		Select("thread_id", "user_id").
		Where("thread_id IN ?", threadIDs).
		Order("id ASC").
		Find(&likes).Error
	if err != nil {
		return nil, models.NewStoreError("load thread likes", err)
	}
	for _, l := range likes {
		out[l.ThreadID] = append(out[l.ThreadID], l.UserID)
	}
	return out, nil
}

func (r *threadRepository) listRoots(ctx context.Context, scope func(*gorm.DB) *gorm.DB, offset, limit int) ([]*models.Thread, error) {
	var threads []*models.Thread
	err := scope(r.withRefs(ctx).Where("parent_id IS NULL")).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&threads).Error
	if err != nil {
		return nil, models.NewStoreError("list threads", err)
	}
	return threads, nil
}

func (r *threadRepository) countRoots(ctx context.Context, scope func(*gorm.DB) *gorm.DB) (int64, error) {
	var n int64
	err := scope(readDB(r.db).WithContext(ctx).Model(&models.Thread{}).Where("parent_id IS NULL")).
		Count(&n).Error
	if err != nil {
		return 0, models.NewStoreError("count threads", err)
	}
	return n, nil
}

func allThreads(db *gorm.DB) *gorm.DB { return db }

func byAuthor(authorID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Where("author_id = ?", authorID) }
}

func byCommunity(communityID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Where("community_id = ?", communityID) }
}

func (r *threadRepository) ListRoots(ctx context.Context, offset, limit int) ([]*models.Thread, error) {
	return r.listRoots(ctx, allThreads, offset, limit)
}

func (r *threadRepository) CountRoots(ctx context.Context) (int64, error) {
	return r.countRoots(ctx, allThreads)
}

func (r *threadRepository) ListRootsByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]*models.Thread, error) {
	return r.listRoots(ctx, byAuthor(authorID), offset, limit)
}

func (r *threadRepository) CountRootsByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return r.countRoots(ctx, byAuthor(authorID))
}

func (r *threadRepository) ListRootsByCommunity(ctx context.Context, communityID uint, offset, limit int) ([]*models.Thread, error) {
	return r.listRoots(ctx, byCommunity(communityID), offset, limit)
}

func (r *threadRepository) CountRootsByCommunity(ctx context.Context, communityID uint) (int64, error) {
	return r.countRoots(ctx, byCommunity(communityID))
}

// IDsByAuthor returns every thread the user wrote, roots and replies alike.
func (r *threadRepository) IDsByAuthor(ctx context.Context, authorID uint) ([]uint, error) {
	var ids []uint
	err := readDB(r.db).WithContext(ctx).Model(&models.Thread{}).
		Where("author_id = ?", authorID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, models.NewStoreError("list authored threads", err)
	}
	return ids, nil
}

func (r *threadRepository) RootIDsByCommunity(ctx context.Context, communityID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Thread{}).
		Where("community_id = ? AND parent_id IS NULL", communityID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, models.NewStoreError("list community threads", err)
	}
	return ids, nil
}

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(thread).Error; err != nil {
		return models.NewStoreError("create thread", err)
	}
	cache.BumpFeedGeneration(ctx)
	return nil
}

// CreateReply stores the reply and appends it to its parent's children in one transaction.
func (r *threadRepository) CreateReply(ctx context.Context, reply *models.Thread) error {
	if reply.ParentID == nil {
		return models.NewValidationError("reply requires a parent thread")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(reply).Error; err != nil {
			return err
		}
		return tx.Create(&models.ThreadEdge{
			ParentID:  *reply.ParentID,
			ChildID:   reply.ID,
			CreatedAt: reply.CreatedAt,
		}).Error
	})
	if err != nil {
		return models.NewStoreError("create reply", err)
	}
	cache.BumpFeedGeneration(ctx)
	return nil
}

func (r *threadRepository) IsLiked(ctx context.Context, userID, threadID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ThreadLike{}).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Count(&n).Error
	if err != nil {
		return false, models.NewStoreError("check like", err)
	}
	return n > 0, nil
}

// Like adds userID to the thread's likes. Liking twice is a no-op.
func (r *threadRepository) Like(ctx context.Context, userID, threadID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ThreadLike{ThreadID: threadID, UserID: userID}).Error
	if err != nil {
		return models.NewStoreError("like thread", err)
	}
	cache.BumpFeedGeneration(ctx)
	return nil
}

func (r *threadRepository) Unlike(ctx context.Context, userID, threadID uint) error {
	err := r.db.WithContext(ctx).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Delete(&models.ThreadLike{}).Error
	if err != nil {
		return models.NewStoreError("unlike thread", err)
	}
	cache.BumpFeedGeneration(ctx)
	return nil
}

// DescendantIDs walks down from rootIDs and returns every transitive reply, following
// both stored children edges and parent_id back-references. rootIDs are not included.
func (r *threadRepository) DescendantIDs(ctx context.Context, rootIDs []uint) ([]uint, error) {
	seen := make(map[uint]struct{}, len(rootIDs))
	for _, id := range rootIDs {
		seen[id] = struct{}{}
	}

	var out []uint
	frontier := rootIDs
	for len(frontier) > 0 {
		var viaEdges, viaParent []uint
		db := r.db.WithContext(ctx)
		if err := db.Model(&models.ThreadEdge{}).Where("parent_id IN ?", frontier).Pluck("child_id", &viaEdges).Error; err != nil {
			return nil, models.NewStoreError("collect descendants", err)
		}
		if err := db.Model(&models.Thread{}).Where("parent_id IN ?", frontier).Pluck("id", &viaParent).Error; err != nil {
			return nil, models.NewStoreError("collect descendants", err)
		}

		var next []uint
		for _, id := range append(viaEdges, viaParent...) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			next = append(next, id)
		}
		out = append(out, next...)
		frontier = next
	}
	return out, nil
}

// DeleteCascade removes the threads, every edge touching them and their likes.
func (r *threadRepository) DeleteCascade(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id IN ?", ids).Delete(&models.ThreadLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("parent_id IN ? OR child_id IN ?", ids, ids).Delete(&models.ThreadEdge{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Thread{}).Error
	})
	if err != nil {
		return models.NewStoreError("delete threads", err)
	}
	cache.BumpFeedGeneration(ctx)
	return nil
}
