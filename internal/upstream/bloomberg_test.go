package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsdesk/config"
	"newsdesk/internal/httpclient"
)

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.BloombergConfig{
		BaseURL:    srv.URL,
		PopularURL: srv.URL + "/popular/resources",
		Timeout:    timeout,
		Cookie:     "session=abc",
		UserAgent:  "test-agent",
	}, nil, zap.NewNop())
}

func TestStoriesMarkets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lineup-next/api/stories", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "MARKETS", q.Get("brand"))
		assert.Equal(t, "2", q.Get("pageNumber"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, storyTypes, q.Get("types"))
		assert.Empty(t, r.Header.Get("Cookie"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"id":"a","headline":"One","url":"/news/a"}]`))
	}, time.Second)

	raw, err := c.Stories(context.Background(), StoriesRequest{Brand: BrandMarkets, Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","headline":"One","url":"/news/a"}]`, string(raw))
}

func TestStoriesGeneralSendsCookie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("brand"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))
		_, _ = w.Write([]byte(`[]`))
	}, time.Second)

	raw, err := c.Stories(context.Background(), StoriesRequest{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestStoriesUpstreamStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, time.Second)

	_, err := c.Stories(context.Background(), StoriesRequest{Brand: BrandEconomics})
	var se *httpclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
}

func TestStoriesTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, 50*time.Millisecond)

	_, err := c.Stories(context.Background(), StoriesRequest{})
	require.Error(t, err)
	assert.True(t, httpclient.IsTimeout(err))
}

func TestStoriesInvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>captcha</html>`))
	}, time.Second)

	_, err := c.Stories(context.Background(), StoriesRequest{})
	assert.Error(t, err)
}

func TestPopular(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/popular/resources", r.URL.Path)
		assert.Equal(t, "Story|All", r.URL.Query().Get("facets"))
		assert.Equal(t, "86400000", r.URL.Query().Get("maxAge"))
		_, _ = w.Write([]byte(`{"Story|All":[{"id":"p1"}],"Video|All":[]}`))
	}, time.Second)

	raw, err := c.Popular(context.Background(), 10)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1"}]`, string(raw))
}

func TestPopularMissingFacet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Story|All":null}`))
	}, time.Second)

	raw, err := c.Popular(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestNormalize(t *testing.T) {
	items, err := Normalize(json.RawMessage(`[
		{"id":"a","headline":"One","url":"/news/a","publishedAt":"2025-01-01T00:00:00Z"},
		{"id":"b"}
	]`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://www.bloomberg.com/news/a", *items[0].URL)

	_, err = Normalize(json.RawMessage(`{}`))
	assert.Error(t, err)
}
