package service

import (
	"context"
	"sort"

	"threadline/internal/models"
	"threadline/internal/observability"
	"threadline/internal/repository"
)

// ActivityResolver finds replies other people left on a user's threads.
type ActivityResolver struct {
	threads repository.ThreadRepository
}

func NewActivityResolver(threads repository.ThreadRepository) *ActivityResolver {
	return &ActivityResolver{threads: threads}
}

// Activity returns the direct replies to any thread userID wrote, excluding the user's
// own replies, newest first. Store failures yield an empty list.
func (r *ActivityResolver) Activity(ctx context.Context, userID uint) []models.ActivityItem {
	ctx, span := observability.StartSpan(ctx, "ActivityResolver.Activity")
	items, err := r.resolve(ctx, userID)
	observability.EndSpan(span, err)
	if err != nil {
		degraded(ctx, "activity", err)
		return []models.ActivityItem{}
	}
	return items
}

func (r *ActivityResolver) resolve(ctx context.Context, userID uint) ([]models.ActivityItem, error) {
	items := []models.ActivityItem{}

	authored, err := r.threads.IDsByAuthor(ctx, userID)
	if err != nil || len(authored) == 0 {
		return items, err
	}
	edges, err := r.threads.ChildIDs(ctx, authored)
	if err != nil {
		return nil, err
	}

	parentOf := make(map[uint]uint)
	var replyIDs []uint
	for _, parentID := range authored {
		for _, childID := range edges[parentID] {
			if _, dup := parentOf[childID]; dup {
				continue
			}
			parentOf[childID] = parentID
			replyIDs = append(replyIDs, childID)
		}
	}
	if len(replyIDs) == 0 {
		return items, nil
	}

	replies, err := r.threads.FindByIDs(ctx, replyIDs)
	if err != nil {
		return nil, err
	}
	for _, reply := range replies {
		if reply.AuthorID == userID {
			continue
		}
		items = append(items, models.ActivityItem{
			ReplyID:   reply.ID,
			Text:      reply.Text,
			CreatedAt: reply.CreatedAt,
			Author:    reply.Author.Summary(),
			ParentID:  parentOf[reply.ID],
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}
