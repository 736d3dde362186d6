package models

import "time"

// Community groups threads and members under one owner.
type Community struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExternalID  string    `gorm:"uniqueIndex;size:191;not null" json:"external_id"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Username    string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Image       string    `json:"image"`
	Bio         string    `gorm:"type:text" json:"bio"`
	CreatedByID uint      `gorm:"index;not null" json:"created_by_id"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Members     []User    `gorm:"many2many:community_members;" json:"members,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary returns the community block attached to thread nodes.
func (c *Community) Summary() *CommunitySummary {
	if c == nil || c.ID == 0 {
		return nil
	}
	return &CommunitySummary{ID: c.ID, Name: c.Name, Image: c.Image}
}

// CommunitySummary is the compact community view embedded in threads.
type CommunitySummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// CommunityMember is the join row behind User.Communities and Community.Members.
type CommunityMember struct {
	CommunityID uint `gorm:"primaryKey"`
	UserID      uint `gorm:"primaryKey"`
}

func (CommunityMember) TableName() string {
	return "community_members"
}
