package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"newsdesk/config"
	"newsdesk/internal/model"
)

var testPagination = config.PaginationConfig{
	ChannelLimit: 10,
	NewsLimit:    8,
	PostsLimit:   6,
	MaxLimit:     100,
	LatestLimit:  100,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// seedArticles inserts n articles of one category and source, the i-th one
// published i minutes before baseTime.
func seedArticles(t *testing.T, db *gorm.DB, prefix, source, category string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		ts := baseTime.Add(-time.Duration(i) * time.Minute)
		link := fmt.Sprintf("https://example.com/%s/%d", prefix, i)
		cat := category
		a := model.Article{
			ID:                 fmt.Sprintf("%s-%03d", prefix, i),
			Source:             source,
			Title:              fmt.Sprintf("%s story %d", category, i),
			URL:                &link,
			Category:           &cat,
			PublicationTimeUTC: &ts,
		}
		require.NoError(t, db.Create(&a).Error)
	}
}

func newArticleService(db *gorm.DB) *ArticleService {
	return NewArticleService(db, nil, zap.NewNop(), testPagination)
}
