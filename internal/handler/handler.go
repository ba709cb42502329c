package handler

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"newsdesk/config"
	"newsdesk/internal/reader"
	"newsdesk/internal/searchconsole"
	"newsdesk/internal/service"
	"newsdesk/internal/taxonomy"
	"newsdesk/internal/tts"
	"newsdesk/internal/upstream"
	"newsdesk/web"
)

// Deps are the collaborators the routes read from. Every field is required.
type Deps struct {
	Site          config.SiteConfig
	Pagination    config.PaginationConfig
	Feeds         config.FeedsConfig
	Taxonomy      *taxonomy.Mapper
	Articles      *service.ArticleService
	Posts         *service.PostService
	Status        *service.StatusService
	Bloomberg     *upstream.Client
	Reader        *reader.Reader
	TTS           *tts.Client
	SearchConsole *searchconsole.Checker
	Log           *zap.Logger
}

type Handler struct {
	site          config.SiteConfig
	pagination    config.PaginationConfig
	feeds         config.FeedsConfig
	taxonomy      *taxonomy.Mapper
	articles      *service.ArticleService
	posts         *service.PostService
	status        *service.StatusService
	bloomberg     *upstream.Client
	reader        *reader.Reader
	tts           *tts.Client
	searchConsole *searchconsole.Checker
	sanitizer     *reader.Sanitizer
	log           *zap.Logger
	now           func() time.Time
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		site:          d.Site,
		pagination:    d.Pagination,
		feeds:         d.Feeds,
		taxonomy:      d.Taxonomy,
		articles:      d.Articles,
		posts:         d.Posts,
		status:        d.Status,
		bloomberg:     d.Bloomberg,
		reader:        d.Reader,
		tts:           d.TTS,
		searchConsole: d.SearchConsole,
		sanitizer:     reader.NewSanitizer(),
		log:           d.Log,
		now:           time.Now,
	}
}

// NewRouter builds the gin engine with middleware, templates and routes.
func NewRouter(h *Handler) (*gin.Engine, error) {
	r := gin.New()
	r.Use(RequestLogger(h.log), gin.Recovery())

	tmpl, err := web.Templates(template.FuncMap{
		"articleLink": h.articleLink,
		"displayTime": displayTime,
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
	})
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", web.Static())

	h.RegisterRoutes(r)
	return r, nil
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// 页面
	r.GET("/", h.IndexPage)
	r.GET("/channels", h.ChannelPage)
	r.GET("/news/:id", h.ArticlePage)
	r.GET("/markets", h.MarketsPage)
	r.GET("/blog", h.BlogPage)
	r.GET("/blog/:id", h.PostPage)

	// 站点文件
	r.GET("/sitemap.xml", h.Sitemap)
	r.GET("/news-sitemap.xml", h.NewsSitemap)
	r.GET("/rss.xml", h.RSS)
	r.GET("/robots.txt", h.Robots)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API
	api := r.Group("/api")
	{
		// News
		api.POST("/news-by-channel", h.NewsByChannel)
		api.GET("/news", h.ListNews)
		api.GET("/channels", h.ListChannels)
		api.GET("/latest-news", h.LatestNews)
		api.GET("/articles/:id", h.GetArticle)

		// Posts
		api.GET("/posts", h.ListPosts)
		api.GET("/posts/:id", h.GetPost)

		// Bloomberg
		api.GET("/bloomberg-news", h.BloombergMarkets)
		api.GET("/bloomberg-economics", h.BloombergEconomics)
		api.GET("/bloomberg-general", h.BloombergGeneral)
		api.GET("/bloomberg-popular", h.BloombergPopular)

		// Proxies
		api.POST("/jina-reader", h.JinaReader)
		api.POST("/tts-proxy", h.TTSProxy)

		// Search console
		api.GET("/submit-sitemap", h.SitemapStatus)
		api.POST("/submit-sitemap", h.SubmitSitemap)
		api.GET("/gsc-status", h.GSCStatus)
		api.POST("/gsc-status", h.GSCAction)

		// Status
		api.GET("/status", h.GetStatus)
	}
}

// ===== Status相关 =====

func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.status.GetSystemStatus(c.Request.Context())
	if err != nil {
		h.log.Error("system status failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}
