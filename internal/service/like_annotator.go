package service

import "threadline/internal/models"

// AnnotateTree sets IsLiked and LikeCount on the root and every descendant in a single
// depth-first pass. A nil viewer never likes anything.
func AnnotateTree(tree *models.TreeNode, viewerID *uint) *models.TreeNode {
	if tree == nil {
		return nil
	}
	stack := []*models.TreeNode{tree}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n.LikeCount = len(n.Likes)
		n.IsLiked = likedBy(n.Likes, viewerID)

		for i := len(n.Children) - 1; i >= 0; i-- {
			if n.Children[i] != nil {
				stack = append(stack, n.Children[i])
			}
		}
	}
	return tree
}

// AnnotateSummaries marks each list item for the viewer. Reply previews are not annotated.
func AnnotateSummaries(items []models.ThreadSummary, viewerID *uint) {
	for i := range items {
		items[i].LikeCount = len(items[i].Likes)
		items[i].IsLiked = likedBy(items[i].Likes, viewerID)
	}
}

func likedBy(likes []uint, viewerID *uint) bool {
	if viewerID == nil {
		return false
	}
	for _, id := range likes {
		if id == *viewerID {
			return true
		}
	}
	return false
}
