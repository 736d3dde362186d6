package service

import (
	"testing"

	"threadline/internal/models"

	"github.com/stretchr/testify/assert"
)

func node(id uint, likes []uint, children ...*models.TreeNode) *models.TreeNode {
	if children == nil {
		children = []*models.TreeNode{}
	}
	return &models.TreeNode{ID: id, Likes: likes, Children: children}
}

func collect(tree *models.TreeNode) map[uint]*models.TreeNode {
	out := map[uint]*models.TreeNode{}
	stack := []*models.TreeNode{tree}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out[n.ID] = n
		stack = append(stack, n.Children...)
	}
	return out
}

func TestAnnotateTree_MarksEveryNode(t *testing.T) {
	tree := node(1, []uint{7, 8},
		node(2, nil,
			node(4, []uint{7}),
		),
		node(3, []uint{9},
			node(5, []uint{},
				node(6, []uint{7, 9}),
			),
		),
	)

	AnnotateTree(tree, uintPtr(7))

	want := map[uint]struct {
		liked bool
		count int
	}{
		1: {true, 2},
		2: {false, 0},
		3: {false, 1},
		4: {true, 1},
		5: {false, 0},
		6: {true, 2},
	}
	nodes := collect(tree)
	assert.Len(t, nodes, len(want))
	for id, w := range want {
		assert.Equal(t, w.liked, nodes[id].IsLiked, "node %d", id)
		assert.Equal(t, w.count, nodes[id].LikeCount, "node %d", id)
	}
}

func TestAnnotateTree_NilViewerNeverLikes(t *testing.T) {
	tree := node(1, []uint{1, 2, 3}, node(2, []uint{1}), node(3, []uint{0}))

	AnnotateTree(tree, nil)

	for id, n := range collect(tree) {
		assert.False(t, n.IsLiked, "node %d", id)
	}
	assert.Equal(t, 3, tree.LikeCount)
}

func TestAnnotateTree_IsLikedIffViewerInLikes(t *testing.T) {
	likes := []uint{3, 5, 8}
	for viewer := uint(0); viewer <= 10; viewer++ {
		tree := AnnotateTree(node(1, likes), uintPtr(viewer))
		inSet := viewer == 3 || viewer == 5 || viewer == 8
		assert.Equal(t, inSet, tree.IsLiked, "viewer %d", viewer)
	}
}

func TestAnnotateTree_ToleratesMissingPieces(t *testing.T) {
	assert.Nil(t, AnnotateTree(nil, uintPtr(1)))

	tree := &models.TreeNode{ID: 1, Children: []*models.TreeNode{nil, {ID: 2}}}
	assert.NotPanics(t, func() { AnnotateTree(tree, uintPtr(1)) })
	assert.False(t, tree.IsLiked)
	assert.Equal(t, 0, tree.Children[1].LikeCount)
}

func TestAnnotateTree_DeepChainHasNoRecursionLimit(t *testing.T) {
	root := node(0, []uint{42})
	cur := root
	for i := uint(1); i <= 10000; i++ {
		next := node(i, []uint{42})
		cur.Children = []*models.TreeNode{next}
		cur = next
	}

	AnnotateTree(root, uintPtr(42))

	assert.True(t, cur.IsLiked)
	assert.Equal(t, 10000, root.Depth())
}

func TestAnnotateSummaries(t *testing.T) {
	items := []models.ThreadSummary{
		{ID: 1, Likes: []uint{4}},
		{ID: 2, Likes: nil},
		{ID: 3, Likes: []uint{1, 4, 6}},
	}

	AnnotateSummaries(items, uintPtr(4))
	assert.True(t, items[0].IsLiked)
	assert.False(t, items[1].IsLiked)
	assert.True(t, items[2].IsLiked)
	assert.Equal(t, 3, items[2].LikeCount)

	AnnotateSummaries(items, nil)
	for _, it := range items {
		assert.False(t, it.IsLiked)
	}
}
