package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"newsdesk/config"
	"newsdesk/internal/model"
)

// PostPage is one page of published blog posts.
type PostPage struct {
	Items   []model.Post `json:"data"`
	Count   int64        `json:"count"`
	Page    int          `json:"page"`
	Limit   int          `json:"limit"`
	HasMore bool         `json:"hasMore"`
}

type PostService struct {
	db           *gorm.DB
	defaultLimit int
	maxLimit     int
}

func NewPostService(db *gorm.DB, cfg config.PaginationConfig) *PostService {
	return &PostService{db: db, defaultLimit: cfg.PostsLimit, maxLimit: cfg.MaxLimit}
}

// List 获取已发布文章, newest first
func (s *PostService) List(ctx context.Context, page, limit int) (PostPage, error) {
	req := PageRequest{Page: page, Limit: limit}.Normalize(s.defaultLimit, s.maxLimit)
	out := PostPage{Items: []model.Post{}, Page: req.Page, Limit: req.Limit}

	published := s.db.WithContext(ctx).Model(&model.Post{}).Where("status = ?", model.PostPublished)
	if err := published.Count(&out.Count).Error; err != nil {
		return out, fmt.Errorf("count posts: %w", err)
	}

	from, _ := PageRange(req.Page, req.Limit)
	if err := s.db.WithContext(ctx).
		Where("status = ?", model.PostPublished).
		Order("created_at DESC").Order("id DESC").
		Offset(from).Limit(req.Limit).
		Find(&out.Items).Error; err != nil {
		return PostPage{Items: []model.Post{}, Page: req.Page, Limit: req.Limit}, fmt.Errorf("list posts: %w", err)
	}
	out.HasMore = int64(req.Page*req.Limit) < out.Count
	return out, nil
}

// Get looks a published post up by numeric id or slug.
func (s *PostService) Get(ctx context.Context, key string) (model.Post, error) {
	q := s.db.WithContext(ctx).Where("status = ?", model.PostPublished)
	if id, err := strconv.ParseUint(key, 10, 64); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("slug = ?", key)
	}

	var post model.Post
	err := q.First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Post{}, ErrNotFound
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("get post %s: %w", key, err)
	}
	return post, nil
}
