package models

import "time"

// User is a member of the network. ExternalID is the opaque subject issued by the identity provider.
type User struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ExternalID  string      `gorm:"uniqueIndex;size:191;not null" json:"external_id"`
	Name        string      `gorm:"size:120" json:"name"`
	Username    string      `gorm:"uniqueIndex;size:64" json:"username"`
	Bio         string      `gorm:"type:text" json:"bio"`
	Image       string      `json:"image"`
	Onboarded   bool        `gorm:"default:false" json:"onboarded"`
	Communities []Community `gorm:"many2many:community_members;" json:"communities,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Summary returns the compact author view embedded in threads.
func (u *User) Summary() AuthorSummary {
	if u == nil {
		return AuthorSummary{}
	}
	return AuthorSummary{ID: u.ID, Name: u.Name, Username: u.Username, Image: u.Image}
}

// AuthorSummary is the author block attached to every thread node.
type AuthorSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Image    string `json:"image"`
}
