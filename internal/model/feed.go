package model

import "time"

// Feed records the fetch state of a configured RSS source.
type Feed struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	URL           string     `gorm:"size:500;uniqueIndex;not null" json:"url"`
	Source        string     `gorm:"size:64" json:"source"`
	LastFetchedAt *time.Time `json:"last_fetched_at"`
	LastError     string     `gorm:"type:text" json:"last_error,omitempty"`
	ItemsAdded    int64      `json:"items_added"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// All models migrated at start-up.
func All() []any {
	return []any{&Article{}, &Post{}, &Feed{}}
}
