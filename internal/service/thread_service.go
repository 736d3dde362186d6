package service

import (
	"context"
	"strings"

	"threadline/internal/models"
	"threadline/internal/observability"
	"threadline/internal/repository"
	"threadline/internal/validation"
)

type ThreadService struct {
	threads     repository.ThreadRepository
	communities repository.CommunityRepository
	assembler   *TreeAssembler
	builder     summaryBuilder
	pageSize    int
}

type CreateThreadInput struct {
	AuthorID    uint
	Text        string `validate:"threadtext"`
	MediaURL    string `validate:"omitempty,url"`
	CommunityID *uint
}

// AddCommentInput replies to ParentID when set, otherwise to ThreadID itself.
type AddCommentInput struct {
	AuthorID uint
	ThreadID uint   `validate:"required"`
	ParentID *uint
	Text     string `validate:"threadtext"`
}

// CommentResult carries the stored reply and who wrote the thread it answers.
type CommentResult struct {
	Reply          *models.Thread
	ParentAuthorID uint
}

func NewThreadService(
	threads repository.ThreadRepository,
	communities repository.CommunityRepository,
	pageSize int,
) *ThreadService {
	return &ThreadService{
		threads:     threads,
		communities: communities,
		assembler:   NewTreeAssembler(threads),
		builder:     summaryBuilder{threads: threads},
		pageSize:    pageSize,
	}
}

func (s *ThreadService) CreateThread(ctx context.Context, in CreateThreadInput) (*models.Thread, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("sign in to post")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.CommunityID != nil {
		if _, err := s.communities.GetByID(ctx, *in.CommunityID); err != nil {
			return nil, err
		}
	}

	thread := &models.Thread{
		Text:        strings.TrimSpace(in.Text),
		MediaURL:    strings.TrimSpace(in.MediaURL),
		AuthorID:    in.AuthorID,
		CommunityID: in.CommunityID,
	}
	if err := s.threads.Create(ctx, thread); err != nil {
		return nil, err
	}
	observability.ThreadMutations.WithLabelValues("create").Inc()
	return s.reload(ctx, thread), nil
}

func (s *ThreadService) AddComment(ctx context.Context, in AddCommentInput) (*CommentResult, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("sign in to reply")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	parent, err := s.threads.GetByID(ctx, in.ThreadID)
	if err != nil {
		return nil, err
	}
	if in.ParentID != nil && *in.ParentID != in.ThreadID {
		parent, err = s.threads.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
	}

	// Replies carry their thread's community so its owner can moderate them.
	parentID := parent.ID
	reply := &models.Thread{
		Text:        strings.TrimSpace(in.Text),
		AuthorID:    in.AuthorID,
		CommunityID: parent.CommunityID,
		ParentID:    &parentID,
	}
	if err := s.threads.CreateReply(ctx, reply); err != nil {
		return nil, err
	}
	observability.ThreadMutations.WithLabelValues("reply").Inc()
	return &CommentResult{Reply: s.reload(ctx, reply), ParentAuthorID: parent.AuthorID}, nil
}

// ToggleLike flips userID's membership in the thread's likes and returns the thread
// as the viewer now sees it.
func (s *ThreadService) ToggleLike(ctx context.Context, userID, threadID uint) (*models.ThreadSummary, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("sign in to like")
	}
	thread, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}

	liked, err := s.threads.IsLiked(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}
	if liked {
		err = s.threads.Unlike(ctx, userID, threadID)
		observability.ThreadMutations.WithLabelValues("unlike").Inc()
	} else {
		err = s.threads.Like(ctx, userID, threadID)
		observability.ThreadMutations.WithLabelValues("like").Inc()
	}
	if err != nil {
		return nil, err
	}

	items, err := s.builder.summarize(ctx, []*models.Thread{thread})
	if err != nil {
		return nil, err
	}
	AnnotateSummaries(items, &userID)
	return &items[0], nil
}

// DeleteThread removes the thread and all replies below it. Only the author or the
// owner of the thread's community may delete. It returns the removed ids.
func (s *ThreadService) DeleteThread(ctx context.Context, userID, threadID uint) ([]uint, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("sign in to delete")
	}
	thread, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.canDelete(ctx, userID, thread)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("only the author or the community owner can delete this thread")
	}

	removed, err := deleteSubtrees(ctx, s.threads, []uint{thread.ID})
	if err != nil {
		return nil, err
	}
	observability.ThreadMutations.WithLabelValues("delete").Inc()
	observability.GlobalLogger.InfoContext(ctx, "thread deleted",
		"thread_id", thread.ID, "removed", len(removed))
	return removed, nil
}

func (s *ThreadService) canDelete(ctx context.Context, userID uint, thread *models.Thread) (bool, error) {
	if thread.AuthorID == userID {
		return true, nil
	}
	if thread.CommunityID == nil {
		return false, nil
	}
	community, err := s.communities.GetByID(ctx, *thread.CommunityID)
	if err != nil {
		if models.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return community.CreatedByID == userID, nil
}

// GetThreadTree assembles and annotates the full reply tree. A missing root is
// NOT_FOUND; a store failure yields a nil tree and no error.
func (s *ThreadService) GetThreadTree(ctx context.Context, threadID uint, viewerID *uint) (*models.TreeNode, error) {
	tree, err := s.assembler.Assemble(ctx, threadID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, err
		}
		degraded(ctx, "thread_tree", err)
		return nil, nil
	}
	return AnnotateTree(tree, viewerID), nil
}

func (s *ThreadService) ListUserThreads(ctx context.Context, authorID uint, page, size int, viewerID *uint) models.Page[models.ThreadSummary] {
	page, size = normalizePage(page, size, s.pageSize)
	result, err := s.builder.page(ctx, page, size,
		func(ctx context.Context, offset, limit int) ([]*models.Thread, error) {
			return s.threads.ListRootsByAuthor(ctx, authorID, offset, limit)
		},
		func(ctx context.Context) (int64, error) {
			return s.threads.CountRootsByAuthor(ctx, authorID)
		})
	if err != nil {
		degraded(ctx, "user_threads", err)
		return models.EmptyPage[models.ThreadSummary]()
	}
	AnnotateSummaries(result.Items, viewerID)
	return result
}

func (s *ThreadService) ListCommunityThreads(ctx context.Context, communityID uint, page, size int, viewerID *uint) models.Page[models.ThreadSummary] {
	page, size = normalizePage(page, size, s.pageSize)
	result, err := s.builder.page(ctx, page, size,
		func(ctx context.Context, offset, limit int) ([]*models.Thread, error) {
			return s.threads.ListRootsByCommunity(ctx, communityID, offset, limit)
		},
		func(ctx context.Context) (int64, error) {
			return s.threads.CountRootsByCommunity(ctx, communityID)
		})
	if err != nil {
		degraded(ctx, "community_threads", err)
		return models.EmptyPage[models.ThreadSummary]()
	}
	AnnotateSummaries(result.Items, viewerID)
	return result
}

// reload fetches t with its author and community attached, falling back to t itself.
func (s *ThreadService) reload(ctx context.Context, t *models.Thread) *models.Thread {
	full, err := s.threads.GetByID(ctx, t.ID)
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "reload after write failed", "thread_id", t.ID, "error", err)
		return t
	}
	return full
}
