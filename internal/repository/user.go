package repository

import (
	"context"

	"threadline/internal/cache"
	"threadline/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query string, excludeID uint, offset, limit int) ([]*models.User, int64, error)
	CommunityIDs(ctx context.Context, userID uint) ([]uint, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, "user", cache.UserKey(id), &user, cache.UserTTL, func() error {
		return readDB(r.db).WithContext(ctx).First(&user, id).Error
	})
	if err != nil {
		return nil, lookupError("User", id, err)
	}
	return &user, nil
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, "user", cache.UserExternalKey(externalID), &user, cache.UserTTL, func() error {
		return readDB(r.db).WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	})
	if err != nil {
		return nil, lookupError("User", externalID, err)
	}
	return &user, nil
}

// Upsert inserts the user or updates the profile of the row with the same external ID,
// then reloads it so user carries the stored ID and timestamps.
func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	db := r.db.WithContext(ctx)
	err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "username", "bio", "image", "onboarded", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("username is already taken")
		}
		return models.NewStoreError("save user", err)
	}
	if err := db.Where("external_id = ?", user.ExternalID).First(user).Error; err != nil {
		return models.NewStoreError("reload user", err)
	}
	cache.InvalidateUser(ctx, user.ID, user.ExternalID)
	// Cached feed pages embed author names and images.
	cache.BumpFeedGeneration(ctx)
	return nil
}

// Search matches name or username case-insensitively and never returns excludeID.
func (r *userRepository) Search(ctx context.Context, query string, excludeID uint, offset, limit int) ([]*models.User, int64, error) {
	base := readDB(r.db).WithContext(ctx).Model(&models.User{}).Where("id <> ?", excludeID)
	if query != "" {
		p := likePattern(query)
		base = base.Where(`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\')`, p, p)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewStoreError("count users", err)
	}

	var users []*models.User
	err := base.Session(&gorm.Session{}).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, models.NewStoreError("search users", err)
	}
	return users, total, nil
}

func (r *userRepository) CommunityIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := readDB(r.db).WithContext(ctx).Model(&models.CommunityMember{}).
		Where("user_id = ?", userID).
		Pluck("community_id", &ids).Error
	if err != nil {
		return nil, models.NewStoreError("list memberships", err)
	}
	return ids, nil
}
