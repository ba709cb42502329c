package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/model"
)

func TestPageRange(t *testing.T) {
	from, to := PageRange(1, 10)
	assert.Equal(t, 0, from)
	assert.Equal(t, 9, to)

	from, to = PageRange(3, 10)
	assert.Equal(t, 20, from)
	assert.Equal(t, 29, to)
}

func TestPageRequestNormalize(t *testing.T) {
	r := PageRequest{}.Normalize(10, 100)
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, 10, r.Limit)

	r = PageRequest{Page: -2, Limit: 500}.Normalize(10, 100)
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, 100, r.Limit)
}

func TestListPageKeywordFilter(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "crypto", "Bloomberg", "Crypto", 25)
	seedArticles(t, db, "sports", "Reuters", "Sports", 5)
	svc := newArticleService(db)
	ctx := context.Background()

	page, err := svc.ListPage(ctx, PageRequest{Page: 1, Limit: 10, Keywords: []string{"Crypto"}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.EqualValues(t, 25, page.Count)
	assert.True(t, page.HasMore)
	for _, it := range page.Items {
		assert.Equal(t, "Crypto", *it.Category)
	}

	page, err = svc.ListPage(ctx, PageRequest{Page: 3, Limit: 10, Keywords: []string{"Crypto"}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.EqualValues(t, 25, page.Count)
	assert.False(t, page.HasMore)

	page, err = svc.ListPage(ctx, PageRequest{Page: 4, Limit: 10, Keywords: []string{"Crypto"}})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.EqualValues(t, 25, page.Count)
}

func TestListPageNoKeywordsCountsCorpus(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "crypto", "Bloomberg", "Crypto", 25)
	seedArticles(t, db, "sports", "Reuters", "Sports", 5)
	svc := newArticleService(db)

	page, err := svc.ListPage(context.Background(), PageRequest{Page: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 30, page.Count)
	assert.Len(t, page.Items, 10)
}

func TestListPageNewestFirst(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a", "FT", "Markets", 7)
	seedArticles(t, db, "b", "Reuters", "Markets", 7)
	svc := newArticleService(db)

	page, err := svc.ListPage(context.Background(), PageRequest{Page: 1, Limit: 14})
	require.NoError(t, err)
	require.Len(t, page.Items, 14)
	for i := 1; i < len(page.Items); i++ {
		prev, cur := page.Items[i-1], page.Items[i]
		assert.False(t, cur.PublicationTimeUTC.After(*prev.PublicationTimeUTC))
		if cur.PublicationTimeUTC.Equal(*prev.PublicationTimeUTC) {
			assert.Less(t, prev.ID, cur.ID)
		}
	}
}

func TestListPageIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a", "FT", "Markets", 12)
	seedArticles(t, db, "b", "Reuters", "Markets", 12)
	svc := newArticleService(db)
	req := PageRequest{Page: 2, Limit: 5, Keywords: []string{"Markets"}}

	first, err := svc.ListPage(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.ListPage(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListPageSourceFilter(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a", "FT", "Markets", 3)
	seedArticles(t, db, "b", "Reuters", "Markets", 4)
	svc := newArticleService(db)

	page, err := svc.ListPage(context.Background(), PageRequest{Source: "Reuters"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Count)
	for _, it := range page.Items {
		assert.Equal(t, "Reuters", it.Source)
	}
}

func TestListPageStoreUnavailable(t *testing.T) {
	db := newTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	page, err := newArticleService(db).ListPage(context.Background(), PageRequest{})
	assert.Error(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Count)
}

func TestParseKeywords(t *testing.T) {
	kws, err := ParseKeywords(nil)
	require.NoError(t, err)
	assert.Nil(t, kws)

	kws, err = ParseKeywords(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, kws)

	kws, err = ParseKeywords(json.RawMessage(`["Crypto", "Sports"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Crypto", "Sports"}, kws)

	kws, err = ParseKeywords(json.RawMessage(`[]`))
	require.NoError(t, err)
	assert.Empty(t, kws)

	for _, raw := range []string{`"not-an-array"`, `42`, `{"a":1}`, `["ok", 1]`, `[null]`} {
		_, err = ParseKeywords(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrInvalidKeywords, raw)
	}
}

func TestGet(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a", "FT", "Markets", 2)
	svc := newArticleService(db)

	it, err := svc.Get(context.Background(), "a-001")
	require.NoError(t, err)
	assert.Equal(t, "FT", it.Source)
	assert.Equal(t, "https://example.com/a/1", *it.URL)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPageKeepsBlankTitleRows(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "m", "Bloomberg", "Markets", 10)
	cat := "Markets"
	ts := baseTime.Add(-30 * time.Second)
	require.NoError(t, db.Create(&model.Article{
		ID:                 "blank",
		Source:             "Bloomberg",
		Title:              "  ",
		Category:           &cat,
		PublicationTimeUTC: &ts,
	}).Error)
	svc := newArticleService(db)
	ctx := context.Background()

	page, err := svc.ListPage(ctx, PageRequest{Page: 1, Limit: 11, Keywords: []string{"Markets"}})
	require.NoError(t, err)
	assert.EqualValues(t, 11, page.Count)
	require.Len(t, page.Items, 11)
	assert.Equal(t, "blank", page.Items[1].ID)
	assert.Equal(t, "", page.Items[1].Title)

	page, err = svc.ListPage(ctx, PageRequest{Page: 1, Limit: 10, Keywords: []string{"Markets"}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.True(t, page.HasMore)

	it, err := svc.Get(ctx, "blank")
	require.NoError(t, err)
	assert.Equal(t, "blank", it.ID)
}

func TestLatestAndBySources(t *testing.T) {
	db := newTestDB(t)
	seedArticles(t, db, "a", "FT", "Markets", 3)
	seedArticles(t, db, "b", "Reuters", "World", 3)
	svc := newArticleService(db)

	latest, err := svc.Latest(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, latest, 4)

	grouped, err := svc.BySources(context.Background(), []string{"FT", "Reuters", "Bloomberg"}, 2)
	require.NoError(t, err)
	assert.Len(t, grouped["FT"], 2)
	assert.Len(t, grouped["Reuters"], 2)
	assert.Empty(t, grouped["Bloomberg"])
}
