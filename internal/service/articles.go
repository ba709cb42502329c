package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"newsdesk/config"
	"newsdesk/internal/metrics"
	"newsdesk/internal/model"
	"newsdesk/internal/shaper"
)

// PageRequest describes one listing query. Zero values mean "use the default".
type PageRequest struct {
	Page     int
	Limit    int
	Keywords []string
	Source   string
}

// Normalize applies defaults and bounds: page >= 1, 1 <= limit <= maxLimit.
func (r PageRequest) Normalize(defaultLimit, maxLimit int) PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = defaultLimit
	}
	if maxLimit > 0 && r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	return r
}

// PageRange returns the inclusive zero-based row range of a page.
func PageRange(page, limit int) (from, to int) {
	from = (page - 1) * limit
	to = page*limit - 1
	return from, to
}

// Page is one page of shaped articles plus the total match count.
type Page struct {
	Items   []shaper.Item `json:"data"`
	Count   int64         `json:"count"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
	HasMore bool          `json:"hasMore"`
}

// ArticleService reads the aggregated news table. It never writes.
type ArticleService struct {
	db           *gorm.DB
	shaper       *shaper.Registry
	log          *zap.Logger
	defaultLimit int
	maxLimit     int
}

func NewArticleService(db *gorm.DB, reg *shaper.Registry, log *zap.Logger, cfg config.PaginationConfig) *ArticleService {
	if reg == nil {
		reg = shaper.DefaultRegistry()
	}
	return &ArticleService{
		db:           db,
		shaper:       reg,
		log:          log,
		defaultLimit: cfg.ChannelLimit,
		maxLimit:     cfg.MaxLimit,
	}
}

// ParseKeywords decodes a request's keywords value. Absent or null means no
// filter; anything other than an array of strings is rejected.
func ParseKeywords(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '[' {
		return nil, ErrInvalidKeywords
	}

	var values []any
	if err := json.Unmarshal(trimmed, &values); err != nil {
		return nil, ErrInvalidKeywords
	}
	keywords := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, ErrInvalidKeywords
		}
		keywords = append(keywords, s)
	}
	return keywords, nil
}

func filterScope(req PageRequest) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(req.Keywords) > 0 {
			db = db.Where("category IN ?", req.Keywords)
		}
		if req.Source != "" {
			db = db.Where("source = ?", req.Source)
		}
		return db
	}
}

// newestFirst orders by publication time, undated rows last, ties by id.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("publication_time_utc IS NULL").
		Order("publication_time_utc DESC").
		Order("id ASC")
}

// ListPage returns one page of articles and the pre-pagination match count.
func (s *ArticleService) ListPage(ctx context.Context, req PageRequest) (Page, error) {
	req = req.Normalize(s.defaultLimit, s.maxLimit)
	page := Page{Items: []shaper.Item{}, Page: req.Page, Limit: req.Limit}

	if err := s.db.WithContext(ctx).Model(&model.Article{}).
		Scopes(filterScope(req)).
		Count(&page.Count).Error; err != nil {
		metrics.RecordError("list_page", "count")
		return page, fmt.Errorf("count articles: %w", err)
	}

	from, _ := PageRange(req.Page, req.Limit)
	var rows []model.Article
	if err := s.db.WithContext(ctx).
		Scopes(filterScope(req), newestFirst).
		Offset(from).Limit(req.Limit).
		Find(&rows).Error; err != nil {
		metrics.RecordError("list_page", "find")
		return Page{Items: []shaper.Item{}, Page: req.Page, Limit: req.Limit}, fmt.Errorf("list articles: %w", err)
	}

	page.Items = s.shape(rows)
	page.HasMore = int64(req.Page*req.Limit) < page.Count
	metrics.RecordPage("list_page", len(page.Items))
	return page, nil
}

// Get returns a single article by id.
func (s *ArticleService) Get(ctx context.Context, id string) (shaper.Item, error) {
	var row model.Article
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shaper.Item{}, ErrNotFound
	}
	if err != nil {
		return shaper.Item{}, fmt.Errorf("get article %s: %w", id, err)
	}
	return s.shaper.NormalizeRow(row.Source, shaper.FromArticle(row)), nil
}

// Latest returns the n most recent articles across all sources.
func (s *ArticleService) Latest(ctx context.Context, n int) ([]shaper.Item, error) {
	if n < 1 {
		return []shaper.Item{}, nil
	}
	var rows []model.Article
	if err := s.db.WithContext(ctx).Scopes(newestFirst).Limit(n).Find(&rows).Error; err != nil {
		metrics.RecordError("latest", "find")
		return []shaper.Item{}, fmt.Errorf("latest articles: %w", err)
	}
	return s.shape(rows), nil
}

// BySources returns the first page of each source, keyed by source name.
func (s *ArticleService) BySources(ctx context.Context, sources []string, limit int) (map[string][]shaper.Item, error) {
	out := make(map[string][]shaper.Item, len(sources))
	for _, src := range sources {
		page, err := s.ListPage(ctx, PageRequest{Page: 1, Limit: limit, Source: src})
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src, err)
		}
		out[src] = page.Items
	}
	return out, nil
}

func (s *ArticleService) shape(rows []model.Article) []shaper.Item {
	items := make([]shaper.Item, 0, len(rows))
	for _, row := range rows {
		it := s.shaper.NormalizeRow(row.Source, shaper.FromArticle(row))
		if it.Title == "" {
			s.log.Debug("article without title", zap.String("id", row.ID), zap.String("source", row.Source))
		}
		items = append(items, it)
	}
	return items
}
