package models

import "time"

// MaxThreadLength is the maximum number of characters in a thread or reply.
const MaxThreadLength = 280

// Thread is a post or a reply. Replies carry a ParentID; roots do not.
type Thread struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Text        string     `gorm:"type:text;not null" json:"text"`
	MediaURL    string     `json:"media_url,omitempty"`
	AuthorID    uint       `gorm:"index;not null" json:"author_id"`
	Author      *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CommunityID *uint      `gorm:"index" json:"community_id,omitempty"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	ParentID    *uint      `gorm:"index" json:"parent_id,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

// IsRoot reports whether the thread is a top-level post.
func (t *Thread) IsRoot() bool {
	return t.ParentID == nil
}

// ThreadEdge is one entry of a thread's ordered children list. ChildID has no
// foreign key so a reference can outlive its target.
type ThreadEdge struct {
	ParentID  uint      `gorm:"primaryKey;autoIncrement:false" json:"parent_id"`
	ChildID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"child_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadLike is one member of a thread's likes set.
type ThreadLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"uniqueIndex:idx_thread_like_user;not null" json:"thread_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_thread_like_user;index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
