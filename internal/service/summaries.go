package service

import (
	"context"

	"threadline/internal/models"
	"threadline/internal/observability"
	"threadline/internal/repository"
)

// summaryBuilder turns root threads into list items with a one-level reply preview.
type summaryBuilder struct {
	threads repository.ThreadRepository
}

func (b summaryBuilder) summarize(ctx context.Context, roots []*models.Thread) ([]models.ThreadSummary, error) {
	items := make([]models.ThreadSummary, 0, len(roots))
	if len(roots) == 0 {
		return items, nil
	}

	ids := make([]uint, len(roots))
	for i, r := range roots {
		ids[i] = r.ID
	}
	edges, err := b.threads.ChildIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	likes, err := b.threads.LikerIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var replyIDs []uint
	for _, id := range ids {
		replyIDs = append(replyIDs, edges[id]...)
	}
	replies, err := b.threads.FindByIDs(ctx, replyIDs)
	if err != nil {
		return nil, err
	}
	replyByID := make(map[uint]*models.Thread, len(replies))
	for _, r := range replies {
		replyByID[r.ID] = r
	}

	for _, root := range roots {
		likers := likes[root.ID]
		if likers == nil {
			likers = []uint{}
		}
		item := models.ThreadSummary{
			ID:           root.ID,
			Content:      root.Text,
			CreatedAt:    root.CreatedAt,
			Author:       root.Author.Summary(),
			Community:    root.Community.Summary(),
			MediaURL:     root.MediaURL,
			Likes:        likers,
			LikeCount:    len(likers),
			ReplyAuthors: []models.ReplyAuthor{},
		}
		for _, childID := range edges[root.ID] {
			reply, ok := replyByID[childID]
			if !ok {
				observability.DanglingReferences.WithLabelValues("preview").Inc()
				continue
			}
			author := reply.Author.Summary()
			item.ReplyAuthors = append(item.ReplyAuthors, models.ReplyAuthor{ID: author.ID, Image: author.Image})
		}
		item.ReplyCount = len(item.ReplyAuthors)
		items = append(items, item)
	}
	return items, nil
}

// page loads one page of roots through list/count and summarizes it.
func (b summaryBuilder) page(
	ctx context.Context,
	pageNumber, pageSize int,
	list func(ctx context.Context, offset, limit int) ([]*models.Thread, error),
	count func(ctx context.Context) (int64, error),
) (models.Page[models.ThreadSummary], error) {
	offset := pageOffset(pageNumber, pageSize)
	roots, err := list(ctx, offset, pageSize)
	if err != nil {
		return models.Page[models.ThreadSummary]{}, err
	}
	total, err := count(ctx)
	if err != nil {
		return models.Page[models.ThreadSummary]{}, err
	}
	items, err := b.summarize(ctx, roots)
	if err != nil {
		return models.Page[models.ThreadSummary]{}, err
	}
	return models.Page[models.ThreadSummary]{
		Items:   items,
		HasNext: hasNextPage(total, offset, len(roots)),
	}, nil
}

// degraded logs a failed read and reports it on the degraded reads counter.
func degraded(ctx context.Context, operation string, err error) {
	observability.DegradedReads.WithLabelValues(operation).Inc()
	observability.GlobalLogger.ErrorContext(ctx, "read degraded to empty result",
		"operation", operation, "error", err)
}
