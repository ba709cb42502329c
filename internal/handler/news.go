package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsdesk/internal/service"
	"newsdesk/internal/shaper"
)

type channelQuery struct {
	Keywords json.RawMessage `json:"keywords"`
	Channel  string          `json:"channel"`
}

const maxBodyBytes = 1 << 20

// bindJSON decodes an optional JSON body; an empty body leaves obj untouched.
func bindJSON(c *gin.Context, obj any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func emptyResult(msg string) gin.H {
	return gin.H{"error": msg, "data": []shaper.Item{}, "count": 0}
}

// NewsByChannel 按频道关键词分页查询. The body is {"keywords": [...]}; an
// empty body or missing keywords lists every article.
func (h *Handler) NewsByChannel(c *gin.Context) {
	var q channelQuery
	if err := bindJSON(c, &q); err != nil {
		c.JSON(http.StatusBadRequest, emptyResult("request body must be a JSON object"))
		return
	}

	keywords, err := service.ParseKeywords(q.Keywords)
	if err != nil {
		c.JSON(http.StatusBadRequest, emptyResult(err.Error()))
		return
	}
	if keywords == nil && q.Channel != "" {
		keywords = h.taxonomy.Keywords(q.Channel)
	}

	page, err := h.articles.ListPage(c.Request.Context(), service.PageRequest{
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", h.pagination.ChannelLimit),
		Keywords: keywords,
	})
	if err != nil {
		h.log.Error("news by channel failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, emptyResult("failed to load news"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": page.Items, "count": page.Count})
}

// ListNews is the plain paginated feed, optionally limited to one source.
func (h *Handler) ListNews(c *gin.Context) {
	page, err := h.articles.ListPage(c.Request.Context(), service.PageRequest{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", h.pagination.NewsLimit),
		Source: strings.TrimSpace(c.Query("source")),
	})
	if err != nil {
		h.log.Error("list news failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, emptyResult("failed to load news"))
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) ListChannels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default":  h.taxonomy.Default().Name,
		"channels": h.taxonomy.Channels(),
	})
}

func (h *Handler) LatestNews(c *gin.Context) {
	n := queryInt(c, "limit", h.pagination.LatestLimit)
	if n > h.pagination.MaxLimit {
		n = h.pagination.MaxLimit
	}
	items, err := h.articles.Latest(c.Request.Context(), n)
	if err != nil {
		h.log.Error("latest news failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load news"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetArticle(c *gin.Context) {
	item, err := h.articles.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		h.log.Error("get article failed", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load article"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":     item,
		"channels": h.taxonomy.ChannelsFor(deref(item.Category)),
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
