package server

import (
	"errors"

	"threadline/internal/cache"
	"threadline/internal/identity"
	"threadline/internal/models"
	"threadline/internal/observability"

	"github.com/gofiber/fiber/v2"
)

const (
	localExternalID = "externalID"
	localUserID     = "userID"
	// localViewerErr holds a store error hit while looking up the viewer's record.
	localViewerErr = "viewerLookupErr"
)

var errNotOnboarded = &models.AppError{Code: models.CodeNotFound, Message: "user not onboarded"}

// ResolveViewer identifies the caller without requiring one. Websocket upgrades may
// present a single-use ticket; everything else goes through the identity provider.
func (s *Server) ResolveViewer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ticket := c.Query("ticket"); ticket != "" && c.Path() == "/api/ws" {
			if userID, ok := cache.RedeemWSTicket(c.UserContext(), ticket); ok {
				s.setViewer(c, userID)
				return c.Next()
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("invalid or expired ticket"))
		}

		viewer, err := s.identity.CurrentViewer(c)
		if err != nil {
			if !errors.Is(err, identity.ErrInvalidToken) {
				logViewerFailure(c, "identity provider failed", err)
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("invalid or expired token"))
		}
		if viewer == nil {
			return c.Next()
		}
		c.Locals(localExternalID, viewer.ExternalID)

		user, err := s.userService.GetByExternalID(c.UserContext(), viewer.ExternalID)
		switch {
		case err == nil:
			s.setViewer(c, user.ID)
		case models.IsNotFound(err):
			// Signed in but not onboarded yet.
		default:
			logViewerFailure(c, "viewer lookup failed", err)
			c.Locals(localViewerErr, err)
		}
		return c.Next()
	}
}

func (s *Server) setViewer(c *fiber.Ctx, userID uint) {
	c.Locals(localUserID, userID)
	c.SetUserContext(observability.WithUserID(c.UserContext(), userID))
}

func logViewerFailure(c *fiber.Ctx, msg string, err error) {
	observability.GlobalLogger.WarnContext(c.UserContext(), msg, "path", c.Path(), "error", err)
}

// AuthRequired rejects anonymous requests with 401.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(localUserID).(uint); ok {
			return c.Next()
		}
		if ext, ok := c.Locals(localExternalID).(string); ok && ext != "" {
			return c.Next()
		}
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("sign in required"))
	}
}

// OnboardedRequired rejects callers that have no User record yet.
func (s *Server) OnboardedRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(localUserID).(uint); ok {
			return c.Next()
		}
		if err, ok := c.Locals(localViewerErr).(error); ok {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewStoreError("resolve viewer", err))
		}
		if ext, ok := c.Locals(localExternalID).(string); ok && ext != "" {
			return models.RespondWithError(c, fiber.StatusNotFound, errNotOnboarded)
		}
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("sign in required"))
	}
}

// viewerID returns the caller's user id, or nil for anonymous or not-yet-onboarded callers.
func viewerID(c *fiber.Ctx) *uint {
	if id, ok := c.Locals(localUserID).(uint); ok {
		return &id
	}
	return nil
}

func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}

func currentExternalID(c *fiber.Ctx) string {
	ext, _ := c.Locals(localExternalID).(string)
	return ext
}
