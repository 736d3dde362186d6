package service

import (
	"context"
	"strings"

	"threadline/internal/models"
	"threadline/internal/repository"
	"threadline/internal/validation"
)

type UserService struct {
	users    repository.UserRepository
	pageSize int
}

// ProfileInput is the editable part of a profile. Username is normalized before
// validation.
type ProfileInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Username string `json:"username" validate:"handle"`
	Bio      string `json:"bio" validate:"max=1000"`
	Image    string `json:"image" validate:"omitempty,url"`
}

func NewUserService(users repository.UserRepository, pageSize int) *UserService {
	return &UserService{users: users, pageSize: pageSize}
}

// UpsertProfile onboards the identity on first call and updates the profile after that.
func (s *UserService) UpsertProfile(ctx context.Context, externalID string, in ProfileInput) (*models.User, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, models.NewUnauthorizedError("sign in to edit your profile")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Username = validation.NormalizeHandle(in.Username)
	in.Bio = strings.TrimSpace(in.Bio)
	in.Image = strings.TrimSpace(in.Image)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user := &models.User{
		ExternalID: externalID,
		Name:       in.Name,
		Username:   in.Username,
		Bio:        in.Bio,
		Image:      in.Image,
		Onboarded:  true,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return s.users.GetByExternalID(ctx, externalID)
}

// Search lists users matching query, never including the viewer. Store failures yield
// an empty page.
func (s *UserService) Search(ctx context.Context, viewerID uint, query string, page, size int) models.Page[*models.User] {
	page, size = normalizePage(page, size, s.pageSize)
	offset := pageOffset(page, size)
	users, total, err := s.users.Search(ctx, strings.TrimSpace(query), viewerID, offset, size)
	if err != nil {
		degraded(ctx, "user_search", err)
		return models.EmptyPage[*models.User]()
	}
	if users == nil {
		users = []*models.User{}
	}
	return models.Page[*models.User]{Items: users, HasNext: hasNextPage(total, offset, len(users))}
}

// Profile is a user together with the communities they belong to.
type Profile struct {
	*models.User
	CommunityIDs []uint `json:"community_ids"`
}

// GetProfileWithCommunities loads the user and, best-effort, their memberships.
func (s *UserService) GetProfileWithCommunities(ctx context.Context, id uint) (*Profile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ids, err := s.users.CommunityIDs(ctx, id)
	if err != nil {
		degraded(ctx, "user_communities", err)
		ids = nil
	}
	if ids == nil {
		ids = []uint{}
	}
	return &Profile{User: user, CommunityIDs: ids}, nil
}
