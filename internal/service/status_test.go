package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/model"
	"newsdesk/internal/taxonomy"
)

func TestGetSystemStatus(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "crypto", "Bloomberg", "Crypto", 4)
	seedArticles(t, db, "sports", "Reuters", "Sports", 2)
	require.NoError(t, db.Create(&model.Article{ID: "bare", Source: "FT", Title: "No category"}).Error)
	seedPosts(t, db, 3, model.PostPublished)

	tax, err := taxonomy.Embedded()
	require.NoError(t, err)

	status, err := NewStatusService(db, tax).GetSystemStatus(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 7, status.TotalArticles)
	assert.EqualValues(t, 1, status.Uncategorized)
	assert.EqualValues(t, 3, status.PublishedPosts)
	require.NotNil(t, status.LatestPublication)
	assert.True(t, status.LatestPublication.Equal(baseTime))

	require.NotEmpty(t, status.BySource)
	assert.Equal(t, SourceCount{Source: "Bloomberg", Count: 4}, status.BySource[0])

	counts := map[string]int64{}
	for _, c := range status.Channels {
		counts[c.ID] = c.Count
	}
	assert.EqualValues(t, 7, counts["all"])
	assert.EqualValues(t, 2, counts["sports"])
}
