package model

import "time"

// Article is one row of the aggregated news table. Rows are written by the
// ingest process and only ever read by the web server.
type Article struct {
	ID                 string     `gorm:"primaryKey;size:64" json:"id"`
	Source             string     `gorm:"size:64;index" json:"source"`
	Title              string     `gorm:"size:500;not null" json:"title"`
	URL                *string    `gorm:"size:1000" json:"url"`
	Category           *string    `gorm:"size:255;index" json:"category"`
	PublicationTimeUTC *time.Time `gorm:"column:publication_time_utc;index" json:"publication_time_utc"`
	OriginalTimestamp  *string    `gorm:"column:original_timestamp;size:100" json:"original_timestamp"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (Article) TableName() string { return "all_latest_news" }
