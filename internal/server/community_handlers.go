package server

import (
	"threadline/internal/notifications"
	"threadline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchCommunities handles GET /api/communities?q=&page=&size=
// @Summary Search communities
// @Tags communities
// @Produce json
// @Param q query string false "Search text"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} models.Page[models.Community]
// @Router /communities [get]
func (s *Server) SearchCommunities(c *fiber.Ctx) error {
	q := parsePage(c)
	return c.JSON(s.communityService.Search(c.UserContext(), c.Query("q"), q.Page, q.Size))
}

// CreateCommunity handles POST /api/communities
// @Summary Create community
// @Tags communities
// @Accept json
// @Produce json
// @Param request body service.CommunityInput true "Community"
// @Success 201 {object} models.Community
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /communities [post]
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	var req service.CommunityInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	community, err := s.communityService.Create(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(community)
}

// GetCommunity handles GET /api/communities/:id
// @Summary Community
// @Tags communities
// @Produce json
// @Param id path int true "Community ID"
// @Success 200 {object} models.Community
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/{id} [get]
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	community, err := s.communityService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(community)
}

// UpdateCommunity handles PUT /api/communities/:id
// @Summary Update community
// @Tags communities
// @Accept json
// @Produce json
// @Param id path int true "Community ID"
// @Param request body service.CommunityInput true "Community"
// @Success 200 {object} models.Community
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /communities/{id} [put]
func (s *Server) UpdateCommunity(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.CommunityInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	community, err := s.communityService.Update(c.UserContext(), currentUserID(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(community)
}

// DeleteCommunity handles DELETE /api/communities/:id
// @Summary Delete community with its threads and memberships
// @Tags communities
// @Produce json
// @Param id path int true "Community ID"
// @Success 200 {object} object{deleted_threads=[]int}
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /communities/{id} [delete]
func (s *Server) DeleteCommunity(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	removed, err := s.communityService.Delete(ctx, currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if len(removed) > 0 {
		s.publishBroadcastEvent(ctx, notifications.EventThreadDeleted, map[string]any{
			"community_id": id,
			"removed":      removed,
		})
	}
	return c.JSON(fiber.Map{"deleted_threads": removed})
}

// GetCommunityThreads handles GET /api/communities/:id/threads
// @Summary Root threads in community
// @Tags communities
// @Produce json
// @Param id path int true "Community ID"
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size (max 100)"
// @Success 200 {object} models.Page[models.ThreadSummary]
// @Router /communities/{id}/threads [get]
func (s *Server) GetCommunityThreads(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	q := parsePage(c)
	return c.JSON(s.threadService.ListCommunityThreads(c.UserContext(), id, q.Page, q.Size, viewerID(c)))
}

// AddCommunityMember handles POST /api/communities/:id/members {userId}.
// Without a userId the viewer joins.
// @Summary Add member (self when userId is omitted)
// @Tags communities
// @Accept json
// @Produce json
// @Param id path int true "Community ID"
// @Param request body object{userId=int} true "Member"
// @Success 201 {object} object{community_id=int,user_id=int}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /communities/{id}/members [post]
func (s *Server) AddCommunityMember(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		UserID uint `json:"userId"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}
	actor := currentUserID(c)
	if req.UserID == 0 {
		req.UserID = actor
	}
	if err := s.communityService.AddMember(c.UserContext(), actor, id, req.UserID); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"community_id": id, "user_id": req.UserID})
}

// RemoveCommunityMember handles DELETE /api/communities/:id/members/:userId
// @Summary Remove member
// @Tags communities
// @Produce json
// @Param id path int true "Community ID"
// @Param userId path int true "User ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /communities/{id}/members/{userId} [delete]
func (s *Server) RemoveCommunityMember(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	if err := s.communityService.RemoveMember(c.UserContext(), currentUserID(c), id, userID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

