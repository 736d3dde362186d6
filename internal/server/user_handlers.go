package server

import (
	"threadline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Current user's profile
// @Tags users
// @Produce json
// @Success 200 {object} service.Profile
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.userService.GetProfileWithCommunities(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me. The first call onboards the viewer.
// @Summary Onboard or update the current user
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.ProfileInput true "Profile"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.ProfileInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpsertProfile(c.UserContext(), currentExternalID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// SearchUsers handles GET /api/users?q=&page=&size=
// @Summary Search users
// @Description Matches name or username. The viewer is never part of the result.
// @Tags users
// @Produce json
// @Param q query string false "Search text"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} models.Page[models.User]
// @Router /users [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	q := parsePage(c)
	return c.JSON(s.userService.Search(c.UserContext(), currentUserID(c), c.Query("q"), q.Page, q.Size))
}

// GetUserProfile handles GET /api/users/:id
// @Summary User profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} service.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.userService.GetProfileWithCommunities(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetUserThreads handles GET /api/users/:id/threads
// @Summary Root threads by user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size (max 100)"
// @Success 200 {object} models.Page[models.ThreadSummary]
// @Router /users/{id}/threads [get]
func (s *Server) GetUserThreads(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	q := parsePage(c)
	return c.JSON(s.threadService.ListUserThreads(c.UserContext(), id, q.Page, q.Size, viewerID(c)))
}
