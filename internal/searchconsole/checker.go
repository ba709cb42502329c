// Package searchconsole checks how the site looks to search engines and
// notifies them about sitemap changes.
package searchconsole

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"newsdesk/config"
	"newsdesk/internal/httpclient"
)

const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"

	robotsSnippet = 500
	serviceName   = "search-console"
)

type ResourceCheck struct {
	URL          string `json:"url"`
	Status       string `json:"status"`
	StatusCode   int    `json:"statusCode,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
	ContentType  string `json:"contentType,omitempty"`
	Error        string `json:"error,omitempty"`
}

type RobotsFlags struct {
	HasUserAgent   bool `json:"hasUserAgent"`
	HasSitemap     bool `json:"hasSitemap"`
	HasDisallowAPI bool `json:"hasDisallowApi"`
}

type RobotsCheck struct {
	URL        string       `json:"url"`
	Status     string       `json:"status"`
	StatusCode int          `json:"statusCode,omitempty"`
	Checks     *RobotsFlags `json:"checks,omitempty"`
	Content    string       `json:"content,omitempty"`
	Error      string       `json:"error,omitempty"`
}

type HomepageSEO struct {
	Title             *string `json:"title"`
	Description       *string `json:"description"`
	TitleLength       int     `json:"titleLength"`
	DescriptionLength int     `json:"descriptionLength"`
}

type HomepageFlags struct {
	HasTitle              bool `json:"hasTitle"`
	HasMetaDescription    bool `json:"hasMetaDescription"`
	HasMetaViewport       bool `json:"hasMetaViewport"`
	HasCanonical          bool `json:"hasCanonical"`
	HasOgTags             bool `json:"hasOgTags"`
	HasStructuredData     bool `json:"hasStructuredData"`
	HasGoogleVerification bool `json:"hasGoogleVerification"`
}

type HomepageCheck struct {
	URL        string         `json:"url"`
	Status     string         `json:"status"`
	StatusCode int            `json:"statusCode,omitempty"`
	SEO        *HomepageSEO   `json:"seo,omitempty"`
	Checks     *HomepageFlags `json:"checks,omitempty"`
	Error      string         `json:"error,omitempty"`
}

type Checks struct {
	Sitemap     ResourceCheck `json:"sitemap"`
	NewsSitemap ResourceCheck `json:"newsSitemap"`
	RSS         ResourceCheck `json:"rss"`
	RobotsTxt   RobotsCheck   `json:"robotsTxt"`
	Homepage    HomepageCheck `json:"homepage"`
}

type Recommendation struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action"`
}

// Report is the answer of the status endpoint.
type Report struct {
	Success         bool             `json:"success"`
	HealthScore     int              `json:"healthScore"`
	Checks          Checks           `json:"checks"`
	Timestamp       time.Time        `json:"timestamp"`
	Recommendations []Recommendation `json:"recommendations"`
}

type Checker struct {
	http       httpclient.Client
	log        *zap.Logger
	ledger     *Ledger
	baseURL    string
	googlePing string
	bingPing   string
	userAgent  string
	timeout    time.Duration
	now        func() time.Time
}

// NewChecker builds a checker for site. ledger may be nil, in which case
// submissions are not persisted.
func NewChecker(site config.SiteConfig, cfg config.SearchConsoleConfig, hc httpclient.Client, ledger *Ledger, log *zap.Logger) *Checker {
	if hc == nil {
		hc = httpclient.NewRestyClient(httpclient.Options{})
	}
	return &Checker{
		http:       hc,
		log:        log,
		ledger:     ledger,
		baseURL:    strings.TrimRight(site.BaseURL, "/"),
		googlePing: cfg.GooglePingURL,
		bingPing:   cfg.BingPingURL,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		now:        time.Now,
	}
}

func (c *Checker) sitemapURL() string     { return c.baseURL + "/sitemap.xml" }
func (c *Checker) newsSitemapURL() string { return c.baseURL + "/news-sitemap.xml" }
func (c *Checker) rssURL() string         { return c.baseURL + "/rss.xml" }

func (c *Checker) fetch(ctx context.Context, method, target string) (httpclient.Response, error) {
	return httpclient.Call(ctx, c.http, serviceName, c.timeout, httpclient.Request{
		Method:  method,
		URL:     target,
		Headers: map[string]string{"User-Agent": c.userAgent},
	})
}

// statusOf separates an upstream answer from a transport failure.
func statusOf(resp httpclient.Response, err error) (code int, ok bool, transport error) {
	var se *httpclient.StatusError
	switch {
	case err == nil:
		return resp.StatusCode(), true, nil
	case errors.As(err, &se):
		return se.StatusCode, false, nil
	default:
		return 0, false, err
	}
}

func (c *Checker) checkResource(ctx context.Context, target string) ResourceCheck {
	resp, err := c.fetch(ctx, http.MethodHead, target)
	code, ok, transport := statusOf(resp, err)
	if transport != nil {
		return ResourceCheck{URL: target, Status: StatusError, Error: transport.Error()}
	}
	out := ResourceCheck{URL: target, Status: StatusError, StatusCode: code}
	if ok {
		out.Status = StatusSuccess
	}
	if resp != nil {
		out.LastModified = resp.Header().Get("Last-Modified")
		out.ContentType = resp.Header().Get("Content-Type")
	}
	return out
}

func (c *Checker) checkRobots(ctx context.Context) RobotsCheck {
	target := c.baseURL + "/robots.txt"
	resp, err := c.fetch(ctx, http.MethodGet, target)
	code, ok, transport := statusOf(resp, err)
	if transport != nil {
		return RobotsCheck{URL: target, Status: StatusError, Error: transport.Error()}
	}

	var body []byte
	if resp != nil {
		body = resp.Body()
	}
	out := RobotsCheck{URL: target, Status: StatusWarning, StatusCode: code}
	flags := &RobotsFlags{HasUserAgent: bytes.Contains(bytes.ToLower(body), []byte("user-agent:"))}

	robots, perr := robotstxt.FromStatusAndBytes(code, body)
	if perr == nil {
		flags.HasSitemap = len(robots.Sitemaps) > 0
		flags.HasDisallowAPI = !robots.TestAgent("/api/", "Googlebot")
	}
	out.Checks = flags

	content := string(body)
	if r := []rune(content); len(r) > robotsSnippet {
		content = string(r[:robotsSnippet])
	}
	out.Content = content

	if ok && flags.HasUserAgent && flags.HasSitemap {
		out.Status = StatusSuccess
	}
	return out
}

func (c *Checker) checkHomepage(ctx context.Context) HomepageCheck {
	target := c.baseURL + "/"
	resp, err := c.fetch(ctx, http.MethodGet, target)
	code, ok, transport := statusOf(resp, err)
	if transport != nil {
		return HomepageCheck{URL: target, Status: StatusError, Error: transport.Error()}
	}
	out := HomepageCheck{URL: target, Status: StatusError, StatusCode: code}
	if !ok {
		return out
	}
	out.Status = StatusSuccess

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		out.Status = StatusError
		out.Error = fmt.Sprintf("parse homepage: %v", err)
		return out
	}

	seo := &HomepageSEO{}
	flags := &HomepageFlags{}
	if title := strings.TrimSpace(doc.Find("head title").First().Text()); title != "" {
		seo.Title = &title
		seo.TitleLength = len([]rune(title))
		flags.HasTitle = true
	}
	if desc, exists := doc.Find(`meta[name="description"]`).First().Attr("content"); exists {
		seo.Description = &desc
		seo.DescriptionLength = len([]rune(desc))
		flags.HasMetaDescription = true
	}
	flags.HasMetaViewport = doc.Find(`meta[name="viewport"]`).Length() > 0
	flags.HasCanonical = doc.Find(`link[rel="canonical"]`).Length() > 0
	flags.HasOgTags = doc.Find(`meta[property^="og:"]`).Length() > 0
	flags.HasStructuredData = doc.Find(`script[type="application/ld+json"]`).Length() > 0
	flags.HasGoogleVerification = doc.Find(`meta[name="google-site-verification"]`).Length() > 0

	out.SEO = seo
	out.Checks = flags
	return out
}

// Status runs every check concurrently and scores the result.
func (c *Checker) Status(ctx context.Context) (Report, error) {
	var checks Checks
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { checks.Sitemap = c.checkResource(gctx, c.sitemapURL()); return nil })
	g.Go(func() error { checks.NewsSitemap = c.checkResource(gctx, c.newsSitemapURL()); return nil })
	g.Go(func() error { checks.RSS = c.checkResource(gctx, c.rssURL()); return nil })
	g.Go(func() error { checks.RobotsTxt = c.checkRobots(gctx); return nil })
	g.Go(func() error { checks.Homepage = c.checkHomepage(gctx); return nil })
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	return Report{
		Success:         true,
		HealthScore:     HealthScore(checks),
		Checks:          checks,
		Timestamp:       c.now().UTC(),
		Recommendations: Recommend(checks),
	}, nil
}

// HealthScore is the share of passed checks, 0-100.
func HealthScore(checks Checks) int {
	statuses := []string{
		checks.Sitemap.Status,
		checks.NewsSitemap.Status,
		checks.RSS.Status,
		checks.RobotsTxt.Status,
		checks.Homepage.Status,
	}
	passed := 0
	for _, s := range statuses {
		if s == StatusSuccess {
			passed++
		}
	}
	return int(math.Round(float64(passed) / float64(len(statuses)) * 100))
}

// Recommend turns failed checks into actionable advice.
func Recommend(checks Checks) []Recommendation {
	recs := []Recommendation{}
	if checks.Sitemap.Status != StatusSuccess {
		recs = append(recs, Recommendation{
			Type:        StatusError,
			Title:       "Sitemap unreachable",
			Description: "The main sitemap cannot be fetched, which blocks crawling.",
			Action:      "Check that /sitemap.xml is generated and served.",
		})
	}
	if checks.NewsSitemap.Status != StatusSuccess {
		recs = append(recs, Recommendation{
			Type:        StatusWarning,
			Title:       "News sitemap problem",
			Description: "The news sitemap may be broken, which affects Google News inclusion.",
			Action:      "Check the news-sitemap.xml generation.",
		})
	}
	if checks.Homepage.Checks != nil && !checks.Homepage.Checks.HasGoogleVerification {
		recs = append(recs, Recommendation{
			Type:        StatusWarning,
			Title:       "Missing Google verification",
			Description: "No Google Search Console verification tag was found.",
			Action:      "Set site.google_verification to render the meta tag.",
		})
	}
	if seo := checks.Homepage.SEO; seo != nil {
		if seo.TitleLength > 60 {
			recs = append(recs, Recommendation{
				Type:        StatusWarning,
				Title:       "Title too long",
				Description: fmt.Sprintf("The page title has %d characters; keep it within 60.", seo.TitleLength),
				Action:      "Shorten the page title.",
			})
		}
		if seo.DescriptionLength > 160 {
			recs = append(recs, Recommendation{
				Type:        StatusWarning,
				Title:       "Description too long",
				Description: fmt.Sprintf("The meta description has %d characters; keep it within 160.", seo.DescriptionLength),
				Action:      "Shorten the meta description.",
			})
		}
	}
	if checks.RobotsTxt.Status != StatusSuccess {
		recs = append(recs, Recommendation{
			Type:        StatusError,
			Title:       "robots.txt problem",
			Description: "robots.txt is missing or lacks required directives.",
			Action:      "Check the robots.txt configuration.",
		})
	}
	return recs
}
