// Package service holds the thread, user and community use cases on top of the repositories.
package service

import (
	"context"

	"threadline/internal/models"
	"threadline/internal/observability"
	"threadline/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// TreeAssembler materializes a thread and every reply under it.
type TreeAssembler struct {
	threads repository.ThreadRepository
}

func NewTreeAssembler(threads repository.ThreadRepository) *TreeAssembler {
	return &TreeAssembler{threads: threads}
}

// Assemble walks the stored children edges breadth-first, one batch of lookups per
// level, until no node has children left. Children keep their stored order. Edges
// that point at missing records are logged and dropped; an unknown root is NOT_FOUND.
func (a *TreeAssembler) Assemble(ctx context.Context, rootID uint) (_ *models.TreeNode, err error) {
	ctx, span := observability.StartSpan(ctx, "TreeAssembler.Assemble",
		attribute.Int64("thread.id", int64(rootID)))
	defer func() { observability.EndSpan(span, err) }()

	root, err := a.threads.GetByID(ctx, rootID)
	if err != nil {
		return nil, err
	}
	rootLikes, err := a.threads.LikerIDs(ctx, []uint{root.ID})
	if err != nil {
		return nil, err
	}

	tree := models.NewTreeNode(root, rootLikes[root.ID])
	arena := map[uint]*models.TreeNode{root.ID: tree}

	for frontier := []uint{root.ID}; len(frontier) > 0; {
		edges, err := a.threads.ChildIDs(ctx, frontier)
		if err != nil {
			return nil, err
		}

		var pending []uint
		for _, parentID := range frontier {
			for _, childID := range edges[parentID] {
				if _, seen := arena[childID]; !seen {
					pending = append(pending, childID)
				}
			}
		}
		if len(pending) == 0 {
			break
		}

		records, err := a.threads.FindByIDs(ctx, pending)
		if err != nil {
			return nil, err
		}
		likes, err := a.threads.LikerIDs(ctx, pending)
		if err != nil {
			return nil, err
		}
		byID := make(map[uint]*models.Thread, len(records))
		for _, rec := range records {
			byID[rec.ID] = rec
		}

		var next []uint
		for _, parentID := range frontier {
			parent := arena[parentID]
			for _, childID := range edges[parentID] {
				if _, seen := arena[childID]; seen {
					observability.GlobalLogger.WarnContext(ctx, "thread reachable twice, keeping first placement",
						"thread_id", childID, "parent_id", parentID)
					continue
				}
				rec, ok := byID[childID]
				if !ok {
					observability.DanglingReferences.WithLabelValues("child").Inc()
					observability.GlobalLogger.WarnContext(ctx, "dangling child reference skipped",
						"parent_id", parentID, "child_id", childID)
					continue
				}
				child := models.NewTreeNode(rec, likes[childID])
				arena[childID] = child
				parent.Children = append(parent.Children, child)
				next = append(next, childID)
			}
		}
		frontier = next
	}

	depth := tree.Depth()
	observability.TreeAssemblyDepth.Observe(float64(depth))
	observability.TreeAssemblyNodes.Observe(float64(len(arena)))
	span.SetAttributes(attribute.Int("tree.depth", depth), attribute.Int("tree.nodes", len(arena)))
	return tree, nil
}
