package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsdesk/internal/searchconsole"
	"newsdesk/internal/seo"
)

const xmlContentType = "application/xml; charset=utf-8"

func cacheHour(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600, s-maxage=3600")
}

func (h *Handler) channelNames() []string {
	var names []string
	for _, ch := range h.taxonomy.Channels() {
		names = append(names, ch.Name)
	}
	return names
}

func (h *Handler) Sitemap(c *gin.Context) {
	out, err := seo.Sitemap(h.site, h.channelNames(), h.now())
	if err != nil {
		h.log.Error("render sitemap failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Error generating sitemap")
		return
	}
	cacheHour(c)
	c.Data(http.StatusOK, xmlContentType, out)
}

func (h *Handler) NewsSitemap(c *gin.Context) {
	items, err := h.articles.Latest(c.Request.Context(), h.feeds.NewsSitemapLimit)
	if err != nil {
		h.log.Error("news sitemap query failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Error generating sitemap")
		return
	}
	out, err := seo.NewsSitemap(h.site, items)
	if err != nil {
		h.log.Error("render news sitemap failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Error generating sitemap")
		return
	}
	cacheHour(c)
	c.Data(http.StatusOK, xmlContentType, out)
}

func (h *Handler) RSS(c *gin.Context) {
	items, err := h.articles.Latest(c.Request.Context(), h.feeds.RSSLimit)
	if err != nil {
		h.log.Error("rss query failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Error generating RSS feed")
		return
	}
	out, err := seo.RSS(h.site, items, h.now())
	if err != nil {
		h.log.Error("render rss failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Error generating RSS feed")
		return
	}
	cacheHour(c)
	c.Data(http.StatusOK, xmlContentType, []byte(out))
}

func (h *Handler) Robots(c *gin.Context) {
	c.String(http.StatusOK, seo.Robots(h.site))
}

// ===== Search console =====

func (h *Handler) GSCStatus(c *gin.Context) {
	report, err := h.searchConsole.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error(), "timestamp": h.now().UTC()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) GSCAction(c *gin.Context) {
	var body struct {
		Action string `json:"action"`
	}
	if err := bindJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid action"})
		return
	}
	res, err := h.searchConsole.Action(c.Request.Context(), body.Action)
	if errors.Is(err, searchconsole.ErrUnknownAction) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid action"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) SubmitSitemap(c *gin.Context) {
	report, err := h.searchConsole.Submit(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error(), "timestamp": h.now().UTC()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) SitemapStatus(c *gin.Context) {
	report, err := h.searchConsole.SitemapChecks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error(), "timestamp": h.now().UTC()})
		return
	}
	c.JSON(http.StatusOK, report)
}
