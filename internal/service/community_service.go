package service

import (
	"context"
	"strings"

	"threadline/internal/models"
	"threadline/internal/observability"
	"threadline/internal/repository"
	"threadline/internal/validation"

	"github.com/google/uuid"
)

type CommunityService struct {
	communities repository.CommunityRepository
	users       repository.UserRepository
	threads     repository.ThreadRepository
	pageSize    int
}

type CommunityInput struct {
	// ExternalID links the community to an organization at the identity provider.
	// A random id is assigned when empty.
	ExternalID string `json:"external_id" validate:"max=191"`
	Name       string `json:"name" validate:"required,max=120"`
	Username   string `json:"username" validate:"handle"`
	Image      string `json:"image" validate:"omitempty,url"`
	Bio        string `json:"bio" validate:"max=1000"`
}

func NewCommunityService(
	communities repository.CommunityRepository,
	users repository.UserRepository,
	threads repository.ThreadRepository,
	pageSize int,
) *CommunityService {
	return &CommunityService{
		communities: communities,
		users:       users,
		threads:     threads,
		pageSize:    pageSize,
	}
}

func normalizeCommunityInput(in CommunityInput) (CommunityInput, error) {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Name = strings.TrimSpace(in.Name)
	in.Username = validation.NormalizeHandle(in.Username)
	in.Image = strings.TrimSpace(in.Image)
	in.Bio = strings.TrimSpace(in.Bio)
	return in, validation.Struct(in)
}

func (s *CommunityService) Create(ctx context.Context, ownerID uint, in CommunityInput) (*models.Community, error) {
	if ownerID == 0 {
		return nil, models.NewUnauthorizedError("sign in to create a community")
	}
	in, err := normalizeCommunityInput(in)
	if err != nil {
		return nil, err
	}
	if in.ExternalID == "" {
		in.ExternalID = uuid.NewString()
	}

	community := &models.Community{
		ExternalID:  in.ExternalID,
		Name:        in.Name,
		Username:    in.Username,
		Image:       in.Image,
		Bio:         in.Bio,
		CreatedByID: ownerID,
	}
	if err := s.communities.Create(ctx, community); err != nil {
		return nil, err
	}
	return s.communities.GetByID(ctx, community.ID)
}

func (s *CommunityService) Get(ctx context.Context, id uint) (*models.Community, error) {
	return s.communities.GetByID(ctx, id)
}

func (s *CommunityService) Update(ctx context.Context, userID, id uint, in CommunityInput) (*models.Community, error) {
	community, err := s.ownedCommunity(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	in, err = normalizeCommunityInput(in)
	if err != nil {
		return nil, err
	}

	community.Name = in.Name
	community.Username = in.Username
	community.Image = in.Image
	community.Bio = in.Bio
	if err := s.communities.Update(ctx, community); err != nil {
		return nil, err
	}
	return s.communities.GetByID(ctx, id)
}

// Delete removes the community with its threads, their replies and every membership.
// It returns the removed thread ids.
func (s *CommunityService) Delete(ctx context.Context, userID, id uint) ([]uint, error) {
	community, err := s.ownedCommunity(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	roots, err := s.threads.RootIDsByCommunity(ctx, community.ID)
	if err != nil {
		return nil, err
	}
	removed, err := deleteSubtrees(ctx, s.threads, roots)
	if err != nil {
		return nil, err
	}
	if err := s.communities.Delete(ctx, community.ID); err != nil {
		return nil, err
	}
	observability.GlobalLogger.InfoContext(ctx, "community deleted",
		"community_id", community.ID, "threads_removed", len(removed))
	return removed, nil
}

func (s *CommunityService) Search(ctx context.Context, query string, page, size int) models.Page[*models.Community] {
	page, size = normalizePage(page, size, s.pageSize)
	offset := pageOffset(page, size)
	communities, total, err := s.communities.Search(ctx, strings.TrimSpace(query), offset, size)
	if err != nil {
		degraded(ctx, "community_search", err)
		return models.EmptyPage[*models.Community]()
	}
	if communities == nil {
		communities = []*models.Community{}
	}
	return models.Page[*models.Community]{Items: communities, HasNext: hasNextPage(total, offset, len(communities))}
}

// AddMember lets the owner add anyone and any user add themselves.
func (s *CommunityService) AddMember(ctx context.Context, actorID, communityID, userID uint) error {
	if actorID == 0 {
		return models.NewUnauthorizedError("sign in to join a community")
	}
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	if actorID != community.CreatedByID && actorID != userID {
		return models.NewForbiddenError("only the owner can add other members")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	member, err := s.communities.IsMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if member {
		return models.NewConflictError("user is already a member")
	}
	return s.communities.AddMember(ctx, communityID, userID)
}

// RemoveMember lets the owner remove anyone but themselves and a member leave.
func (s *CommunityService) RemoveMember(ctx context.Context, actorID, communityID, userID uint) error {
	if actorID == 0 {
		return models.NewUnauthorizedError("sign in to leave a community")
	}
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	if userID == community.CreatedByID {
		return models.NewValidationError("the owner cannot leave the community")
	}
	if actorID != community.CreatedByID && actorID != userID {
		return models.NewForbiddenError("only the owner can remove other members")
	}
	member, err := s.communities.IsMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !member {
		return models.NewNotFoundError("Membership", userID)
	}
	return s.communities.RemoveMember(ctx, communityID, userID)
}

func (s *CommunityService) ownedCommunity(ctx context.Context, userID, id uint) (*models.Community, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("sign in to manage a community")
	}
	community, err := s.communities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if community.CreatedByID != userID {
		return nil, models.NewForbiddenError("only the owner can manage this community")
	}
	return community, nil
}
