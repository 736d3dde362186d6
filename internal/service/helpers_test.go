package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"threadline/internal/database"
	"threadline/internal/models"
	"threadline/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errStoreDown = models.NewStoreError("query", errors.New("connection refused"))

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, handle string) *models.User {
	t.Helper()
	u := &models.User{
		ExternalID: "ext_" + handle,
		Name:       handle,
		Username:   handle,
		Image:      fmt.Sprintf("https://img.test/%s.png", handle),
		Onboarded:  true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createRoot(t *testing.T, db *gorm.DB, author *models.User, text string, at time.Time) *models.Thread {
	t.Helper()
	th := &models.Thread{Text: text, AuthorID: author.ID, CreatedAt: at}
	require.NoError(t, repository.NewThreadRepository(db).Create(t.Context(), th))
	return th
}

func createReply(t *testing.T, db *gorm.DB, author *models.User, parent *models.Thread, text string) *models.Thread {
	t.Helper()
	parentID := parent.ID
	th := &models.Thread{Text: text, AuthorID: author.ID, ParentID: &parentID}
	require.NoError(t, repository.NewThreadRepository(db).CreateReply(t.Context(), th))
	return th
}

// seedRoots creates n root threads one minute apart, oldest first.
func seedRoots(t *testing.T, db *gorm.DB, author *models.User, n int) []*models.Thread {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*models.Thread, n)
	for i := range n {
		out[i] = createRoot(t, db, author, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}
	return out
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func uintPtr(v uint) *uint { return &v }

// threadRepoStub is a stub for repository.ThreadRepository.
type threadRepoStub struct {
	getByIDFn               func(context.Context, uint) (*models.Thread, error)
	findByIDsFn             func(context.Context, []uint) ([]*models.Thread, error)
	childIDsFn              func(context.Context, []uint) (map[uint][]uint, error)
	likerIDsFn              func(context.Context, []uint) (map[uint][]uint, error)
	listRootsFn             func(context.Context, int, int) ([]*models.Thread, error)
	countRootsFn            func(context.Context) (int64, error)
	listRootsByAuthorFn     func(context.Context, uint, int, int) ([]*models.Thread, error)
	countRootsByAuthorFn    func(context.Context, uint) (int64, error)
	listRootsByCommunityFn  func(context.Context, uint, int, int) ([]*models.Thread, error)
	countRootsByCommunityFn func(context.Context, uint) (int64, error)
	idsByAuthorFn           func(context.Context, uint) ([]uint, error)
	rootIDsByCommunityFn    func(context.Context, uint) ([]uint, error)
	createFn                func(context.Context, *models.Thread) error
	createReplyFn           func(context.Context, *models.Thread) error
	isLikedFn               func(context.Context, uint, uint) (bool, error)
	likeFn                  func(context.Context, uint, uint) error
	unlikeFn                func(context.Context, uint, uint) error
	descendantIDsFn         func(context.Context, []uint) ([]uint, error)
	deleteCascadeFn         func(context.Context, []uint) error
}

func (s *threadRepoStub) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	return s.getByIDFn(ctx, id)
}
func (s *threadRepoStub) FindByIDs(ctx context.Context, ids []uint) ([]*models.Thread, error) {
	return s.findByIDsFn(ctx, ids)
}
func (s *threadRepoStub) ChildIDs(ctx context.Context, parentIDs []uint) (map[uint][]uint, error) {
	return s.childIDsFn(ctx, parentIDs)
}
func (s *threadRepoStub) LikerIDs(ctx context.Context, threadIDs []uint) (map[uint][]uint, error) {
	return s.likerIDsFn(ctx, threadIDs)
}
func (s *threadRepoStub) ListRoots(ctx context.Context, offset, limit int) ([]*models.Thread, error) {
	return s.listRootsFn(ctx, offset, limit)
}
func (s *threadRepoStub) CountRoots(ctx context.Context) (int64, error) {
	return s.countRootsFn(ctx)
}
func (s *threadRepoStub) ListRootsByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]*models.Thread, error) {
	return s.listRootsByAuthorFn(ctx, authorID, offset, limit)
}
func (s *threadRepoStub) CountRootsByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return s.countRootsByAuthorFn(ctx, authorID)
}
func (s *threadRepoStub) ListRootsByCommunity(ctx context.Context, communityID uint, offset, limit int) ([]*models.Thread, error) {
	return s.listRootsByCommunityFn(ctx, communityID, offset, limit)
}
func (s *threadRepoStub) CountRootsByCommunity(ctx context.Context, communityID uint) (int64, error) {
	return s.countRootsByCommunityFn(ctx, communityID)
}
func (s *threadRepoStub) IDsByAuthor(ctx context.Context, authorID uint) ([]uint, error) {
	return s.idsByAuthorFn(ctx, authorID)
}
func (s *threadRepoStub) RootIDsByCommunity(ctx context.Context, communityID uint) ([]uint, error) {
	return s.rootIDsByCommunityFn(ctx, communityID)
}
func (s *threadRepoStub) Create(ctx context.Context, thread *models.Thread) error {
	return s.createFn(ctx, thread)
}
func (s *threadRepoStub) CreateReply(ctx context.Context, reply *models.Thread) error {
	return s.createReplyFn(ctx, reply)
}
func (s *threadRepoStub) IsLiked(ctx context.Context, userID, threadID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, threadID)
}
func (s *threadRepoStub) Like(ctx context.Context, userID, threadID uint) error {
	return s.likeFn(ctx, userID, threadID)
}
func (s *threadRepoStub) Unlike(ctx context.Context, userID, threadID uint) error {
	return s.unlikeFn(ctx, userID, threadID)
}
func (s *threadRepoStub) DescendantIDs(ctx context.Context, rootIDs []uint) ([]uint, error) {
	return s.descendantIDsFn(ctx, rootIDs)
}
func (s *threadRepoStub) DeleteCascade(ctx context.Context, ids []uint) error {
	return s.deleteCascadeFn(ctx, ids)
}

func noopThreadRepo() *threadRepoStub {
	empty := func(_ context.Context, _ []uint) (map[uint][]uint, error) { return map[uint][]uint{}, nil }
	return &threadRepoStub{
		getByIDFn:               func(_ context.Context, id uint) (*models.Thread, error) { return &models.Thread{ID: id}, nil },
		findByIDsFn:             func(_ context.Context, _ []uint) ([]*models.Thread, error) { return nil, nil },
		childIDsFn:              empty,
		likerIDsFn:              empty,
		listRootsFn:             func(_ context.Context, _, _ int) ([]*models.Thread, error) { return nil, nil },
		countRootsFn:            func(_ context.Context) (int64, error) { return 0, nil },
		listRootsByAuthorFn:     func(_ context.Context, _ uint, _, _ int) ([]*models.Thread, error) { return nil, nil },
		countRootsByAuthorFn:    func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		listRootsByCommunityFn:  func(_ context.Context, _ uint, _, _ int) ([]*models.Thread, error) { return nil, nil },
		countRootsByCommunityFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		idsByAuthorFn:           func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		rootIDsByCommunityFn:    func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		createFn:                func(_ context.Context, _ *models.Thread) error { return nil },
		createReplyFn:           func(_ context.Context, _ *models.Thread) error { return nil },
		isLikedFn:               func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:                  func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:                func(_ context.Context, _, _ uint) error { return nil },
		descendantIDsFn:         func(_ context.Context, _ []uint) ([]uint, error) { return nil, nil },
		deleteCascadeFn:         func(_ context.Context, _ []uint) error { return nil },
	}
}

// communityRepoStub is a stub for repository.CommunityRepository.
type communityRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.Community, error)
	getByExternalIDFn func(context.Context, string) (*models.Community, error)
	createFn          func(context.Context, *models.Community) error
	updateFn          func(context.Context, *models.Community) error
	deleteFn          func(context.Context, uint) error
	searchFn          func(context.Context, string, int, int) ([]*models.Community, int64, error)
	isMemberFn        func(context.Context, uint, uint) (bool, error)
	addMemberFn       func(context.Context, uint, uint) error
	removeMemberFn    func(context.Context, uint, uint) error
}

func (s *communityRepoStub) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	return s.getByIDFn(ctx, id)
}
func (s *communityRepoStub) GetByExternalID(ctx context.Context, externalID string) (*models.Community, error) {
	return s.getByExternalIDFn(ctx, externalID)
}
func (s *communityRepoStub) Create(ctx context.Context, community *models.Community) error {
	return s.createFn(ctx, community)
}
func (s *communityRepoStub) Update(ctx context.Context, community *models.Community) error {
	return s.updateFn(ctx, community)
}
func (s *communityRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *communityRepoStub) Search(ctx context.Context, query string, offset, limit int) ([]*models.Community, int64, error) {
	return s.searchFn(ctx, query, offset, limit)
}
func (s *communityRepoStub) IsMember(ctx context.Context, communityID, userID uint) (bool, error) {
	return s.isMemberFn(ctx, communityID, userID)
}
func (s *communityRepoStub) AddMember(ctx context.Context, communityID, userID uint) error {
	return s.addMemberFn(ctx, communityID, userID)
}
func (s *communityRepoStub) RemoveMember(ctx context.Context, communityID, userID uint) error {
	return s.removeMemberFn(ctx, communityID, userID)
}

func noopCommunityRepo() *communityRepoStub {
	return &communityRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Community, error) {
			return &models.Community{ID: id}, nil
		},
		getByExternalIDFn: func(_ context.Context, ext string) (*models.Community, error) {
			return &models.Community{ExternalID: ext}, nil
		},
		createFn: func(_ context.Context, _ *models.Community) error { return nil },
		updateFn: func(_ context.Context, _ *models.Community) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
		searchFn: func(_ context.Context, _ string, _, _ int) ([]*models.Community, int64, error) {
			return nil, 0, nil
		},
		isMemberFn:     func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		addMemberFn:    func(_ context.Context, _, _ uint) error { return nil },
		removeMemberFn: func(_ context.Context, _, _ uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.User, error)
	getByExternalIDFn func(context.Context, string) (*models.User, error)
	upsertFn          func(context.Context, *models.User) error
	searchFn          func(context.Context, string, uint, int, int) ([]*models.User, int64, error)
	communityIDsFn    func(context.Context, uint) ([]uint, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return s.getByExternalIDFn(ctx, externalID)
}
func (s *userRepoStub) Upsert(ctx context.Context, user *models.User) error {
	return s.upsertFn(ctx, user)
}
func (s *userRepoStub) Search(ctx context.Context, query string, excludeID uint, offset, limit int) ([]*models.User, int64, error) {
	return s.searchFn(ctx, query, excludeID, offset, limit)
}
func (s *userRepoStub) CommunityIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.communityIDsFn(ctx, userID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByExternalIDFn: func(_ context.Context, ext string) (*models.User, error) {
			return &models.User{ExternalID: ext}, nil
		},
		upsertFn: func(_ context.Context, _ *models.User) error { return nil },
		searchFn: func(_ context.Context, _ string, _ uint, _, _ int) ([]*models.User, int64, error) {
			return nil, 0, nil
		},
		communityIDsFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
	}
}
