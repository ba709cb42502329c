package model

import "time"

type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
)

// Post is a first-party blog entry.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"size:300;not null" json:"title"`
	Slug      string     `gorm:"size:300;uniqueIndex" json:"slug"`
	Excerpt   string     `gorm:"type:text" json:"excerpt"`
	Content   string     `gorm:"type:text" json:"content"`
	Author    string     `gorm:"size:120" json:"author"`
	Status    PostStatus `gorm:"size:20;index;default:draft" json:"status"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
