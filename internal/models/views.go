package models

import "time"

// TreeNode is one thread in an assembled reply tree.
type TreeNode struct {
	ID        uint              `json:"id"`
	ParentID  *uint             `json:"parent_id"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	Author    AuthorSummary     `json:"author"`
	Community *CommunitySummary `json:"community"`
	MediaURL  string            `json:"media_url,omitempty"`
	Likes     []uint            `json:"likes"`
	LikeCount int               `json:"like_count"`
	IsLiked   bool              `json:"is_liked"`
	Children  []*TreeNode       `json:"children"`
}

// NewTreeNode builds a childless node from a stored thread.
func NewTreeNode(t *Thread, likes []uint) *TreeNode {
	if likes == nil {
		likes = []uint{}
	}
	return &TreeNode{
		ID:        t.ID,
		ParentID:  t.ParentID,
		Content:   t.Text,
		CreatedAt: t.CreatedAt,
		Author:    t.Author.Summary(),
		Community: t.Community.Summary(),
		MediaURL:  t.MediaURL,
		Likes:     likes,
		Children:  []*TreeNode{},
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (n *TreeNode) Depth() int {
	if n == nil {
		return 0
	}
	deepest := 0
	type frame struct {
		node  *TreeNode
		depth int
	}
	stack := []frame{{n, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > deepest {
			deepest = f.depth
		}
		for _, child := range f.node.Children {
			stack = append(stack, frame{child, f.depth + 1})
		}
	}
	return deepest
}

// ReplyAuthor is the avatar-only preview of a direct reply.
type ReplyAuthor struct {
	ID    uint   `json:"id"`
	Image string `json:"image"`
}

// ThreadSummary is a root thread as shown in list views, with one level of reply preview.
type ThreadSummary struct {
	ID           uint              `json:"id"`
	Content      string            `json:"content"`
	CreatedAt    time.Time         `json:"created_at"`
	Author       AuthorSummary     `json:"author"`
	Community    *CommunitySummary `json:"community"`
	MediaURL     string            `json:"media_url,omitempty"`
	Likes        []uint            `json:"likes"`
	LikeCount    int               `json:"like_count"`
	IsLiked      bool              `json:"is_liked"`
	ReplyCount   int               `json:"reply_count"`
	ReplyAuthors []ReplyAuthor     `json:"reply_authors"`
}

// ActivityItem is a reply someone else left on one of the user's threads.
type ActivityItem struct {
	ReplyID   uint          `json:"reply_id"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
	Author    AuthorSummary `json:"author"`
	ParentID  uint          `json:"parent_id"`
}

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items   []T  `json:"items"`
	HasNext bool `json:"has_next"`
}

// EmptyPage returns a page with no items and no successor.
func EmptyPage[T any]() Page[T] {
	return Page[T]{Items: []T{}, HasNext: false}
}
