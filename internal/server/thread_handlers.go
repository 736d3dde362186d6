package server

import (
	"threadline/internal/models"
	"threadline/internal/notifications"
	"threadline/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/threads
// @Summary Feed
// @Description Root threads newest first, with a reply preview and like state for the viewer.
// @Tags threads
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size (max 100)"
// @Success 200 {object} models.Page[models.ThreadSummary]
// @Router /threads [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	q := parsePage(c)
	return c.JSON(s.feed.Page(c.UserContext(), q.Page, q.Size, viewerID(c)))
}

// CreateThread handles POST /api/threads
// @Summary Create thread
// @Tags threads
// @Accept json
// @Produce json
// @Param request body object{text=string,media_url=string,community_id=int} true "Thread"
// @Success 201 {object} models.Thread
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads [post]
func (s *Server) CreateThread(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req struct {
		Text        string `json:"text"`
		MediaURL    string `json:"media_url"`
		CommunityID *uint  `json:"community_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	thread, err := s.threadService.CreateThread(ctx, service.CreateThreadInput{
		AuthorID:    currentUserID(c),
		Text:        req.Text,
		MediaURL:    req.MediaURL,
		CommunityID: req.CommunityID,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(ctx, notifications.EventThreadCreated, map[string]any{
		"thread_id":    thread.ID,
		"author_id":    thread.AuthorID,
		"community_id": thread.CommunityID,
	})
	return c.Status(fiber.StatusCreated).JSON(thread)
}

// GetThread handles GET /api/threads/:id
// @Summary Thread with its full reply tree
// @Description A store failure while assembling answers null.
// @Tags threads
// @Produce json
// @Param id path int true "Thread ID"
// @Success 200 {object} models.TreeNode
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{id} [get]
func (s *Server) GetThread(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	tree, err := s.threadService.GetThreadTree(c.UserContext(), id, viewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	// A nil tree marshals to null.
	return c.JSON(tree)
}

// DeleteThread handles DELETE /api/threads/:id
// @Summary Delete thread and all replies below it
// @Tags threads
// @Produce json
// @Param id path int true "Thread ID"
// @Success 200 {object} object{deleted=[]int}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id} [delete]
func (s *Server) DeleteThread(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	removed, err := s.threadService.DeleteThread(ctx, currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(ctx, notifications.EventThreadDeleted, map[string]any{
		"thread_id": id,
		"removed":   removed,
	})
	return c.JSON(fiber.Map{"deleted": removed})
}

// LikeThread handles POST /api/threads/:id/like
// @Summary Toggle like
// @Tags threads
// @Produce json
// @Param id path int true "Thread ID"
// @Success 200 {object} models.ThreadSummary
// @Security BearerAuth
// @Router /threads/{id}/like [post]
func (s *Server) LikeThread(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.toggleLike(c, id)
}

// LikeThreadByBody handles POST /api/thread/like {threadId}
// @Summary Toggle like by body
// @Tags threads
// @Accept json
// @Produce json
// @Param request body object{threadId=int} true "Request"
// @Success 200 {object} models.ThreadSummary
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /thread/like [post]
func (s *Server) LikeThreadByBody(c *fiber.Ctx) error {
	var req struct {
		ThreadID uint `json:"threadId"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.ThreadID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("threadId is required"))
	}
	return s.toggleLike(c, req.ThreadID)
}

func (s *Server) toggleLike(c *fiber.Ctx, threadID uint) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	summary, err := s.threadService.ToggleLike(ctx, userID, threadID)
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(ctx, notifications.EventThreadLiked, map[string]any{
		"thread_id":  summary.ID,
		"user_id":    userID,
		"liked":      summary.IsLiked,
		"like_count": summary.LikeCount,
	})
	return c.JSON(summary)
}

// CreateComment handles POST /api/threads/:id/comments
// @Summary Reply to a thread or to one of its replies
// @Tags threads
// @Accept json
// @Produce json
// @Param id path int true "Thread ID"
// @Param request body object{text=string,parent_id=int} true "Reply"
// @Success 201 {object} models.Thread
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Text     string `json:"text"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return s.addComment(c, id, req.ParentID, req.Text)
}

// CreateCommentByBody handles POST /api/thread/comment {threadId, text, parentId?}
// @Summary Reply by body
// @Tags threads
// @Accept json
// @Produce json
// @Param request body object{threadId=int,text=string,parentId=int} true "Request"
// @Success 201 {object} models.Thread
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /thread/comment [post]
func (s *Server) CreateCommentByBody(c *fiber.Ctx) error {
	var req struct {
		ThreadID uint   `json:"threadId"`
		Text     string `json:"text"`
		ParentID *uint  `json:"parentId"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.ThreadID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("threadId is required"))
	}
	return s.addComment(c, req.ThreadID, req.ParentID, req.Text)
}

func (s *Server) addComment(c *fiber.Ctx, threadID uint, parentID *uint, text string) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	result, err := s.threadService.AddComment(ctx, service.AddCommentInput{
		AuthorID: userID,
		ThreadID: threadID,
		ParentID: parentID,
		Text:     text,
	})
	if err != nil {
		return respondError(c, err)
	}

	if result.ParentAuthorID != userID {
		s.publishUserEvent(ctx, result.ParentAuthorID, notifications.EventReplyCreated, map[string]any{
			"thread_id": threadID,
			"reply_id":  result.Reply.ID,
			"parent_id": result.Reply.ParentID,
			"author_id": userID,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(result.Reply)
}

// GetMyActivity handles GET /api/activity
// @Summary Replies others left on the viewer's threads
// @Tags activity
// @Produce json
// @Success 200 {array} models.ActivityItem
// @Security BearerAuth
// @Router /activity [get]
func (s *Server) GetMyActivity(c *fiber.Ctx) error {
	return c.JSON(s.activity.Activity(c.UserContext(), currentUserID(c)))
}

// GetUserActivity handles GET /api/users/:id/activity
// @Summary Replies others left on the user's threads
// @Tags activity
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.ActivityItem
// @Router /users/{id}/activity [get]
func (s *Server) GetUserActivity(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	return c.JSON(s.activity.Activity(c.UserContext(), id))
}
