package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"newsdesk/internal/httpclient"
)

// Document mirrors the envelope the Jina reader answers with, so the
// frontend reads both backends the same way.
type Document struct {
	Code   int          `json:"code"`
	Status int          `json:"status"`
	Data   DocumentData `json:"data"`
}

type DocumentData struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
	SiteName    string `json:"siteName,omitempty"`
	Byline      string `json:"byline,omitempty"`
}

type readabilityBackend struct {
	http         httpclient.Client
	timeout      time.Duration
	sanitizer    *Sanitizer
	allowPrivate bool
	resolver     *net.Resolver
}

// checkPublic rejects targets that resolve to loopback, private, link-local
// or unspecified addresses.
func (b *readabilityBackend) checkPublic(ctx context.Context, target *url.URL) error {
	if b.allowPrivate {
		return nil
	}
	host := target.Hostname()
	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		addrs, err := b.resolver.LookupIPAddr(ctx, host)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", host, err)
		}
		for _, a := range addrs {
			ips = append(ips, a.IP)
		}
	}
	for _, ip := range ips {
		if !publicIP(ip) {
			return fmt.Errorf("%w: %s is not a public address", ErrInvalidURL, host)
		}
	}
	return nil
}

func publicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsInterfaceLocalMulticast())
}

func (b *readabilityBackend) extract(ctx context.Context, target *url.URL) (json.RawMessage, error) {
	if err := b.checkPublic(ctx, target); err != nil {
		return nil, err
	}
	resp, err := httpclient.Call(ctx, b.http, "readability", b.timeout, httpclient.Request{
		Method:  http.MethodGet,
		URL:     target.String(),
		Headers: map[string]string{"Accept": "text/html,application/xhtml+xml"},
	})
	if err != nil {
		return nil, err
	}

	article, err := readability.FromReader(bytes.NewReader(resp.Body()), target)
	if err != nil {
		return nil, fmt.Errorf("parse article: %w", err)
	}

	doc := Document{
		Code:   http.StatusOK,
		Status: 20000,
		Data: DocumentData{
			Title:       strings.TrimSpace(article.Title),
			URL:         target.String(),
			Content:     b.sanitizer.SanitizeHTMLAndTrim(article.Content),
			Description: strings.TrimSpace(article.Excerpt),
			SiteName:    article.SiteName,
			Byline:      article.Byline,
		},
	}
	return json.Marshal(doc)
}

// Sanitizer provides HTML sanitization functionality.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer allows user-generated-content markup and forces nofollow links.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &Sanitizer{policy: p}
}

// SanitizeHTML sanitizes the given HTML string.
func (s *Sanitizer) SanitizeHTML(html string) string {
	return s.policy.Sanitize(html)
}

// SanitizeHTMLAndTrim sanitizes the HTML and trims surrounding whitespace.
func (s *Sanitizer) SanitizeHTMLAndTrim(html string) string {
	return strings.TrimSpace(s.SanitizeHTML(html))
}
