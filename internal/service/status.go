package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"newsdesk/internal/model"
	"newsdesk/internal/taxonomy"
)

type StatusService struct {
	db       *gorm.DB
	taxonomy *taxonomy.Mapper
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

type ChannelCount struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Count       int64  `json:"count"`
}

type SystemStatus struct {
	// 文章统计
	TotalArticles     int64         `json:"total_articles"`
	BySource          []SourceCount `json:"by_source"`
	Uncategorized     int64         `json:"uncategorized"`
	LatestPublication *time.Time    `json:"latest_publication"`

	// 频道统计
	Channels []ChannelCount `json:"channels"`

	// 博客与订阅源
	PublishedPosts int64 `json:"published_posts"`
	TotalFeeds     int64 `json:"total_feeds"`
}

func NewStatusService(db *gorm.DB, tax *taxonomy.Mapper) *StatusService {
	return &StatusService{db: db, taxonomy: tax}
}

// GetSystemStatus 获取系统状态
func (s *StatusService) GetSystemStatus(ctx context.Context) (*SystemStatus, error) {
	db := s.db.WithContext(ctx)
	status := &SystemStatus{BySource: []SourceCount{}, Channels: []ChannelCount{}}

	if err := db.Model(&model.Article{}).Count(&status.TotalArticles).Error; err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}
	if err := db.Model(&model.Article{}).
		Select("source, COUNT(*) AS count").
		Group("source").Order("count DESC").Order("source ASC").
		Scan(&status.BySource).Error; err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	if err := db.Model(&model.Article{}).
		Where("category IS NULL OR category = ''").
		Count(&status.Uncategorized).Error; err != nil {
		return nil, fmt.Errorf("count uncategorized: %w", err)
	}

	var latest model.Article
	res := db.Where("publication_time_utc IS NOT NULL").Order("publication_time_utc DESC").Limit(1).Find(&latest)
	if res.Error != nil {
		return nil, fmt.Errorf("latest publication: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		status.LatestPublication = latest.PublicationTimeUTC
	}

	// 按频道统计; 关键词为空的频道即全部文章
	for _, ch := range s.taxonomy.Channels() {
		cc := ChannelCount{ID: ch.ID, DisplayName: ch.DisplayName}
		if ch.IsAll() {
			cc.Count = status.TotalArticles
		} else {
			if err := db.Model(&model.Article{}).Where("category IN ?", ch.Keywords).Count(&cc.Count).Error; err != nil {
				return nil, fmt.Errorf("count channel %s: %w", ch.ID, err)
			}
		}
		status.Channels = append(status.Channels, cc)
	}

	if err := db.Model(&model.Post{}).Where("status = ?", model.PostPublished).Count(&status.PublishedPosts).Error; err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	if err := db.Model(&model.Feed{}).Count(&status.TotalFeeds).Error; err != nil {
		return nil, fmt.Errorf("count feeds: %w", err)
	}
	return status, nil
}
