package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsdesk/internal/seo"
	"newsdesk/internal/service"
	"newsdesk/internal/shaper"
	"newsdesk/internal/taxonomy"
	"newsdesk/internal/upstream"
)

const timeLayout = "2006-01-02 15:04 UTC"

func displayTime(it shaper.Item) string {
	return it.DisplayTime(timeLayout)
}

func (h *Handler) articleLink(it shaper.Item) string {
	return seo.ArticleLink(h.site, it)
}

type sourceColumn struct {
	Source string
	Items  []shaper.Item
}

type pager struct {
	Page    int
	HasPrev bool
	HasMore bool
	Base    string
}

func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	data["Site"] = h.site
	data["Channels"] = h.taxonomy.Channels()
	c.HTML(status, name, data)
}

func (h *Handler) errorPage(c *gin.Context, status int, msg string) {
	meta := seo.Home(h.site)
	meta.Title = seo.Truncate(msg+" | "+h.site.Name, seo.MaxTitle)
	h.render(c, status, "error.html", gin.H{"Meta": meta, "Status": status, "Message": msg})
}

// IndexPage 首页: the latest items of each source side by side.
func (h *Handler) IndexPage(c *gin.Context) {
	bySource, err := h.articles.BySources(c.Request.Context(), shaper.Sources, h.pagination.NewsLimit)
	if err != nil {
		h.log.Error("home page query failed", zap.Error(err))
		h.errorPage(c, http.StatusInternalServerError, "Failed to load news")
		return
	}
	columns := make([]sourceColumn, 0, len(shaper.Sources))
	for _, src := range shaper.Sources {
		columns = append(columns, sourceColumn{Source: src, Items: bySource[src]})
	}
	h.render(c, http.StatusOK, "home.html", gin.H{
		"Meta":    seo.Home(h.site),
		"Columns": columns,
	})
}

// ChannelPage lists one channel. A missing category shows the default channel;
// an unknown one lists every article.
func (h *Handler) ChannelPage(c *gin.Context) {
	ch := h.taxonomy.Resolve(c.Query("category"))
	page, err := h.articles.ListPage(c.Request.Context(), service.PageRequest{
		Page:     queryInt(c, "page", 1),
		Limit:    h.pagination.ChannelLimit,
		Keywords: ch.Keywords,
	})
	if err != nil {
		h.log.Error("channel page query failed", zap.String("channel", ch.Name), zap.Error(err))
		h.errorPage(c, http.StatusInternalServerError, "Failed to load news")
		return
	}
	h.render(c, http.StatusOK, "channel.html", gin.H{
		"Meta":    seo.Channel(h.site, ch, page.Page),
		"Channel": ch,
		"Page":    page,
		"Pager":   channelPager(ch, page),
	})
}

func channelPager(ch taxonomy.Channel, page service.Page) pager {
	return pager{
		Page:    page.Page,
		HasPrev: page.Page > 1,
		HasMore: page.HasMore,
		Base:    "/channels?category=" + url.QueryEscape(ch.Name) + "&page=",
	}
}

func (h *Handler) ArticlePage(c *gin.Context) {
	item, err := h.articles.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		h.errorPage(c, http.StatusNotFound, "Article not found")
		return
	}
	if err != nil {
		h.log.Error("article page query failed", zap.String("id", c.Param("id")), zap.Error(err))
		h.errorPage(c, http.StatusInternalServerError, "Failed to load article")
		return
	}
	h.render(c, http.StatusOK, "article.html", gin.H{
		"Meta":     seo.Article(h.site, item),
		"Item":     item,
		"Related":  h.taxonomy.ChannelsFor(deref(item.Category)),
		"Original": item.URL != nil,
	})
}

// MarketsPage renders the live Bloomberg lineup. Upstream failures degrade to
// an empty section with a notice rather than an error page.
func (h *Handler) MarketsPage(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{"Meta": seo.Markets(h.site), "Stories": []shaper.Item{}, "Popular": []shaper.Item{}}

	raw, err := h.bloomberg.Stories(ctx, upstream.StoriesRequest{Brand: upstream.BrandMarkets, Page: 1, Limit: marketsLimit})
	if err == nil {
		var items []shaper.Item
		if items, err = upstream.Normalize(raw); err == nil {
			data["Stories"] = items
		}
	}
	if err != nil {
		h.log.Warn("markets lineup unavailable", zap.Error(err))
		data["Notice"] = "Live market stories are unavailable right now."
	}

	if raw, err := h.bloomberg.Popular(ctx, popularLimit); err != nil {
		h.log.Warn("popular stories unavailable", zap.Error(err))
	} else if items, err := upstream.Normalize(raw); err == nil {
		data["Popular"] = items
	}

	h.render(c, http.StatusOK, "markets.html", data)
}
