package repository

import (
	"context"

	"threadline/internal/cache"
	"threadline/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommunityRepository defines the interface for community data operations
type CommunityRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Community, error)
	Create(ctx context.Context, community *models.Community) error
	Update(ctx context.Context, community *models.Community) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, offset, limit int) ([]*models.Community, int64, error)
	IsMember(ctx context.Context, communityID, userID uint) (bool, error)
	AddMember(ctx context.Context, communityID, userID uint) error
	RemoveMember(ctx context.Context, communityID, userID uint) error
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	var community models.Community
	err := readDB(r.db).WithContext(ctx).
		Preload("CreatedBy").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("users.id ASC") }).
		First(&community, id).Error
	if err != nil {
		return nil, lookupError("Community", id, err)
	}
	return &community, nil
}

func (r *communityRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Community, error) {
	var community models.Community
	err := readDB(r.db).WithContext(ctx).
		Preload("CreatedBy").
		Where("external_id = ?", externalID).
		First(&community).Error
	if err != nil {
		return nil, lookupError("Community", externalID, err)
	}
	return &community, nil
}

// Create stores the community and enrolls its creator as the first member.
func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(community).Error; err != nil {
			return err
		}
		return tx.Create(&models.CommunityMember{CommunityID: community.ID, UserID: community.CreatedByID}).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("community username or id is already taken")
		}
		return models.NewStoreError("create community", err)
	}
	return nil
}

func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	err := r.db.WithContext(ctx).Model(community).
		Select("name", "username", "image", "bio", "updated_at").
		Updates(community).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("community username is already taken")
		}
		return models.NewStoreError("update community", err)
	}
	cache.BumpFeedGeneration(ctx)
	return nil
}

// Delete removes the community and its membership links. Threads are removed by the caller.
func (r *communityRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", id).Delete(&models.CommunityMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Community{}, id).Error
	})
	if err != nil {
		return models.NewStoreError("delete community", err)
	}
	return nil
}

func (r *communityRepository) Search(ctx context.Context, query string, offset, limit int) ([]*models.Community, int64, error) {
	base := readDB(r.db).WithContext(ctx).Model(&models.Community{})
	if query != "" {
		p := likePattern(query)
		base = base.Where(`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\')`, p, p)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewStoreError("count communities", err)
	}

	var communities []*models.Community
	err := base.Session(&gorm.Session{}).
		Preload("CreatedBy").
		Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&communities).Error
	if err != nil {
		return nil, 0, models.NewStoreError("search communities", err)
	}
	return communities, total, nil
}

func (r *communityRepository) IsMember(ctx context.Context, communityID, userID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&n).Error
	if err != nil {
		return false, models.NewStoreError("check membership", err)
	}
	return n > 0, nil
}

func (r *communityRepository) AddMember(ctx context.Context, communityID, userID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CommunityMember{CommunityID: communityID, UserID: userID}).Error
	if err != nil {
		return models.NewStoreError("add member", err)
	}
	return nil
}

func (r *communityRepository) RemoveMember(ctx context.Context, communityID, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityMember{}).Error
	if err != nil {
		return models.NewStoreError("remove member", err)
	}
	return nil
}
