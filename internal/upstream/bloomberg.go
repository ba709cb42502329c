// Package upstream proxies the Bloomberg lineup and popularity feeds.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"newsdesk/config"
	"newsdesk/internal/httpclient"
	"newsdesk/internal/logger"
	"newsdesk/internal/shaper"
)

const (
	BrandMarkets   = "MARKETS"
	BrandEconomics = "ECONOMICS"

	storyTypes  = "ARTICLE,FEATURE,INTERACTIVE,LETTER,EXPLAINERS"
	popularKey  = "Story|All"
	serviceName = "bloomberg"
)

// StoriesRequest selects one page of the lineup feed. An empty Brand is the
// general feed.
type StoriesRequest struct {
	Brand string
	Page  int
	Limit int
}

type Client struct {
	http       httpclient.Client
	log        *zap.Logger
	baseURL    string
	popularURL string
	timeout    time.Duration
	cookie     string
	userAgent  string
}

// New builds a client over hc; a nil hc gets a resty transport using the
// configured proxy.
func New(cfg config.BloombergConfig, hc httpclient.Client, log *zap.Logger) *Client {
	if hc == nil {
		hc = httpclient.NewRestyClient(httpclient.Options{ProxyURL: cfg.ProxyURL})
	}
	return &Client{
		http:       hc,
		log:        log,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		popularURL: cfg.PopularURL,
		timeout:    cfg.Timeout,
		cookie:     cfg.Cookie,
		userAgent:  cfg.UserAgent,
	}
}

func (c *Client) headers(withCookie bool) map[string]string {
	h := map[string]string{
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"User-Agent":      c.userAgent,
	}
	if withCookie && c.cookie != "" {
		h["Cookie"] = c.cookie
	}
	return h
}

// StoriesURL builds the lineup URL for req.
func (c *Client) StoriesURL(req StoriesRequest) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(req.Limit))
	q.Set("pageNumber", strconv.Itoa(req.Page))
	q.Set("types", storyTypes)
	if req.Brand != "" {
		q.Set("brand", req.Brand)
	}
	return c.baseURL + "/lineup-next/api/stories?" + q.Encode()
}

// Stories returns the raw story array of one lineup page.
func (c *Client) Stories(ctx context.Context, req StoriesRequest) (json.RawMessage, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 10
	}

	target := c.StoriesURL(req)
	resp, err := httpclient.Call(ctx, c.http, serviceName, c.timeout, httpclient.Request{
		Method:  http.MethodGet,
		URL:     target,
		Headers: c.headers(req.Brand == ""),
	})
	if err != nil {
		c.logFailure("stories", target, resp, err)
		return nil, err
	}

	body := bytes.TrimSpace(resp.Body())
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s: invalid JSON in stories response", serviceName)
	}
	c.log.Debug("bloomberg stories fetched", zap.String("brand", req.Brand), zap.Int("page", req.Page))
	return json.RawMessage(body), nil
}

// Popular returns the most-read story list, or an empty array when the
// response has none.
func (c *Client) Popular(ctx context.Context, limit int) (json.RawMessage, error) {
	if limit < 1 {
		limit = 10
	}
	q := url.Values{}
	q.Set("minAge", "0")
	q.Set("maxAge", "86400000")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("facets", popularKey)
	target := c.popularURL + "?" + q.Encode()

	resp, err := httpclient.Call(ctx, c.http, serviceName, c.timeout, httpclient.Request{
		Method:  http.MethodGet,
		URL:     target,
		Headers: c.headers(false),
	})
	if err != nil {
		c.logFailure("popular", target, resp, err)
		return nil, err
	}

	var facets map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &facets); err != nil {
		return nil, fmt.Errorf("%s: decode popular: %w", serviceName, err)
	}
	stories := bytes.TrimSpace(facets[popularKey])
	if len(stories) == 0 || stories[0] != '[' {
		return json.RawMessage("[]"), nil
	}
	return json.RawMessage(stories), nil
}

func (c *Client) logFailure(op, target string, resp httpclient.Response, err error) {
	fields := []zap.Field{zap.String("op", op), zap.String("url", target), zap.Error(err)}
	if resp != nil {
		fields = append(fields, zap.Int("status", resp.StatusCode()), zap.String("body", logger.Snippet(resp.Body())))
	}
	c.log.Error("bloomberg request failed", fields...)
}

// Normalize shapes a raw story array for rendering. Stories without a
// headline are dropped.
func Normalize(raw json.RawMessage) ([]shaper.Item, error) {
	var records []shaper.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode stories: %w", err)
	}
	adapter := shaper.BloombergAdapter()
	items := make([]shaper.Item, 0, len(records))
	for _, rec := range records {
		it, err := adapter.NormalizeToArticle(rec)
		if err != nil {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}
