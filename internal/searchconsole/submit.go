package searchconsole

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ErrUnknownAction is returned by Action for names it does not handle.
var ErrUnknownAction = errors.New("invalid action")

const (
	ActionPingGoogle             = "ping-google"
	ActionPingBing               = "ping-bing"
	ActionValidateStructuredData = "validate-structured-data"
)

type SubmitResult struct {
	Sitemap    string `json:"sitemap"`
	Google     string `json:"google"`
	Status     int    `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
	Bing       string `json:"bing"`
	BingStatus int    `json:"bingStatus,omitempty"`
	BingError  string `json:"bingError,omitempty"`
}

type SubmitReport struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Results   []SubmitResult `json:"results"`
	Timestamp time.Time      `json:"timestamp"`
}

type SitemapCheck struct {
	URL          string `json:"url"`
	Status       int    `json:"status"`
	Accessible   bool   `json:"accessible"`
	LastModified string `json:"lastModified,omitempty"`
	ContentType  string `json:"contentType,omitempty"`
	Error        string `json:"error,omitempty"`
}

type SitemapReport struct {
	Success        bool           `json:"success"`
	Checks         []SitemapCheck `json:"checks"`
	LastSubmission *SubmitReport  `json:"lastSubmission"`
	Timestamp      time.Time      `json:"timestamp"`
}

type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
	Valid   *int   `json:"valid,omitempty"`
	Invalid *int   `json:"invalid,omitempty"`
}

// ping asks a search engine to recrawl sitemap. It answers with an outcome
// label ("success", "failed", "error"), the status code and any transport error.
func (c *Checker) ping(ctx context.Context, endpoint, sitemap string) (string, int, error) {
	target := endpoint + "?sitemap=" + url.QueryEscape(sitemap)
	resp, err := c.fetch(ctx, http.MethodGet, target)
	code, ok, transport := statusOf(resp, err)
	switch {
	case transport != nil:
		return "error", 0, transport
	case ok:
		return "success", code, nil
	default:
		return "failed", code, nil
	}
}

// Submit pings Google and Bing for both sitemaps and records the outcome.
func (c *Checker) Submit(ctx context.Context) (SubmitReport, error) {
	report := SubmitReport{Success: true, Message: "Sitemap submission completed"}
	for _, sitemap := range []string{c.sitemapURL(), c.newsSitemapURL()} {
		res := SubmitResult{Sitemap: sitemap}

		outcome, code, err := c.ping(ctx, c.googlePing, sitemap)
		res.Google, res.Status = outcome, code
		if err != nil {
			res.Error = err.Error()
		}

		outcome, code, err = c.ping(ctx, c.bingPing, sitemap)
		res.Bing, res.BingStatus = outcome, code
		if err != nil {
			res.BingError = err.Error()
		}
		report.Results = append(report.Results, res)
	}
	report.Timestamp = c.now().UTC()

	if err := c.ledger.Record(report); err != nil {
		c.log.Warn("record submission failed", zap.Error(err))
	}
	return report, nil
}

// SitemapChecks HEAD-checks both sitemaps and the RSS feed.
func (c *Checker) SitemapChecks(ctx context.Context) (SitemapReport, error) {
	report := SitemapReport{Success: true, Checks: []SitemapCheck{}}
	for _, target := range []string{c.sitemapURL(), c.newsSitemapURL(), c.rssURL()} {
		rc := c.checkResource(ctx, target)
		report.Checks = append(report.Checks, SitemapCheck{
			URL:          rc.URL,
			Status:       rc.StatusCode,
			Accessible:   rc.Status == StatusSuccess,
			LastModified: rc.LastModified,
			ContentType:  rc.ContentType,
			Error:        rc.Error,
		})
	}

	last, err := c.ledger.Last()
	if err != nil {
		c.log.Warn("read submission ledger failed", zap.Error(err))
	}
	report.LastSubmission = last
	report.Timestamp = c.now().UTC()
	return report, nil
}

// Action runs one manual search console operation.
func (c *Checker) Action(ctx context.Context, name string) (ActionResult, error) {
	switch name {
	case ActionPingGoogle:
		return c.pingAction(ctx, c.googlePing, "Google"), nil
	case ActionPingBing:
		return c.pingAction(ctx, c.bingPing, "Bing"), nil
	case ActionValidateStructuredData:
		return c.validateStructuredData(ctx), nil
	default:
		return ActionResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}

func (c *Checker) pingAction(ctx context.Context, endpoint, engine string) ActionResult {
	_, code, err := c.ping(ctx, endpoint, c.sitemapURL())
	if err != nil {
		return ActionResult{Success: false, Error: err.Error()}
	}
	return ActionResult{Success: true, Message: "Successfully pinged " + engine, Status: code}
}

// validateStructuredData checks that every JSON-LD block on the homepage parses.
func (c *Checker) validateStructuredData(ctx context.Context) ActionResult {
	resp, err := c.fetch(ctx, http.MethodGet, c.baseURL+"/")
	if err != nil {
		return ActionResult{Success: false, Error: err.Error()}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return ActionResult{Success: false, Error: err.Error()}
	}

	valid, invalid := 0, 0
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		if json.Valid([]byte(s.Text())) {
			valid++
		} else {
			invalid++
		}
	})
	return ActionResult{
		Success: invalid == 0 && valid > 0,
		Message: "Structured data validation completed",
		Valid:   &valid,
		Invalid: &invalid,
	}
}
