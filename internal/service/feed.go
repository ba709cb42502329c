package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"newsdesk/config"
	"newsdesk/internal/metrics"
	"newsdesk/internal/model"
)

// FeedService pulls RSS/Atom feeds into the article table. It backs the
// ingest command only; the web server never writes articles.
type FeedService struct {
	db      *gorm.DB
	parser  *gofeed.Parser
	log     *zap.Logger
	feeds   []config.FeedSource
	timeout time.Duration
	now     func() time.Time
}

func NewFeedService(db *gorm.DB, log *zap.Logger, cfg config.IngestConfig) *FeedService {
	return &FeedService{
		db:      db,
		parser:  gofeed.NewParser(),
		log:     log,
		feeds:   cfg.Feeds,
		timeout: cfg.Timeout,
		now:     time.Now,
	}
}

// ArticleID derives a stable id from an article link.
func ArticleID(link string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}

// FetchFeed 抓取单个Feed, returns the number of newly inserted articles.
func (s *FeedService) FetchFeed(ctx context.Context, src config.FeedSource) (int, error) {
	feed, err := s.feedRow(ctx, src)
	if err != nil {
		return 0, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	parsed, err := s.parser.ParseURLWithContext(src.URL, fetchCtx)
	if err != nil {
		metrics.RecordError("ingest", "parse")
		s.markFetched(ctx, feed, 0, err)
		return 0, fmt.Errorf("parse feed %s: %w", src.Name, err)
	}

	var count int
	for _, item := range parsed.Items {
		article, ok := s.toArticle(src, item)
		if !ok {
			continue
		}

		// 使用ID去重
		result := s.db.WithContext(ctx).Where("id = ?", article.ID).FirstOrCreate(&article)
		if result.Error != nil {
			s.log.Warn("insert article failed",
				zap.String("feed", src.Name), zap.String("id", article.ID), zap.Error(result.Error))
			continue
		}
		if result.RowsAffected > 0 {
			count++
		}
	}

	metrics.RecordIngested(src.Name, count)
	s.markFetched(ctx, feed, count, nil)
	return count, nil
}

// FetchAll 抓取所有配置的Feed; one failing feed does not stop the others.
func (s *FeedService) FetchAll(ctx context.Context) (int, error) {
	var (
		total int
		errs  []error
	)
	for _, src := range s.feeds {
		n, err := s.FetchFeed(ctx, src)
		if err != nil {
			s.log.Error("fetch feed failed", zap.String("feed", src.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		s.log.Info("feed fetched", zap.String("feed", src.Name), zap.Int("added", n))
		total += n
	}
	return total, errors.Join(errs...)
}

func (s *FeedService) toArticle(src config.FeedSource, item *gofeed.Item) (model.Article, bool) {
	link := strings.TrimSpace(item.Link)
	title := strings.TrimSpace(item.Title)
	if link == "" || title == "" {
		return model.Article{}, false
	}

	article := model.Article{
		ID:     ArticleID(link),
		Source: src.Source,
		Title:  title,
		URL:    &link,
	}

	category := strings.TrimSpace(src.Category)
	if category == "" && len(item.Categories) > 0 {
		category = strings.TrimSpace(item.Categories[0])
	}
	if category != "" {
		article.Category = &category
	}

	if ts := s.parseTime(item); ts != nil {
		article.PublicationTimeUTC = ts
	}
	raw := item.Published
	if raw == "" {
		raw = item.Updated
	}
	if raw != "" {
		article.OriginalTimestamp = &raw
	}
	return article, true
}

func (s *FeedService) parseTime(item *gofeed.Item) *time.Time {
	var ts time.Time
	switch {
	case item.PublishedParsed != nil:
		ts = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		ts = *item.UpdatedParsed
	default:
		ts = s.now()
	}
	ts = ts.UTC()
	return &ts
}

func (s *FeedService) feedRow(ctx context.Context, src config.FeedSource) (*model.Feed, error) {
	feed := model.Feed{Name: src.Name, URL: src.URL, Source: src.Source}
	if err := s.db.WithContext(ctx).Where("url = ?", src.URL).FirstOrCreate(&feed).Error; err != nil {
		return nil, fmt.Errorf("feed row %s: %w", src.Name, err)
	}
	return &feed, nil
}

func (s *FeedService) markFetched(ctx context.Context, feed *model.Feed, added int, fetchErr error) {
	now := s.now().UTC()
	updates := map[string]any{
		"last_fetched_at": now,
		"last_error":      "",
		"items_added":     gorm.Expr("items_added + ?", added),
	}
	if fetchErr != nil {
		updates["last_error"] = fetchErr.Error()
	}
	if err := s.db.WithContext(ctx).Model(feed).Updates(updates).Error; err != nil {
		s.log.Warn("update feed state failed", zap.String("feed", feed.Name), zap.Error(err))
	}
}
