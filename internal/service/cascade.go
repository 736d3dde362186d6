package service

import (
	"context"

	"threadline/internal/repository"
)

// deleteSubtrees removes rootIDs and every transitive reply under them. It returns the
// removed ids, roots first.
func deleteSubtrees(ctx context.Context, threads repository.ThreadRepository, rootIDs []uint) ([]uint, error) {
	if len(rootIDs) == 0 {
		return []uint{}, nil
	}
	descendants, err := threads.DescendantIDs(ctx, rootIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rootIDs)+len(descendants))
	ids = append(ids, rootIDs...)
	ids = append(ids, descendants...)
	if err := threads.DeleteCascade(ctx, ids); err != nil {
		return nil, err
	}
	return ids, nil
}
