// Package reader returns the readable text of an external article, either
// through the Jina reader API or by running readability locally.
package reader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"newsdesk/config"
	"newsdesk/internal/httpclient"
)

// ErrInvalidURL is returned for a target that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("url is required and must be an http(s) URL")

type backend interface {
	extract(ctx context.Context, target *url.URL) (json.RawMessage, error)
}

type Reader struct {
	backend backend
	log     *zap.Logger
}

// New picks the backend named by cfg.Backend. A nil hc gets a resty transport.
func New(cfg config.ReaderConfig, hc httpclient.Client, log *zap.Logger) (*Reader, error) {
	if hc == nil {
		hc = httpclient.NewRestyClient(httpclient.Options{})
	}
	r := &Reader{log: log}
	switch cfg.Backend {
	case "", "jina":
		r.backend = &jinaBackend{http: hc, baseURL: strings.TrimRight(cfg.BaseURL, "/"), apiKey: cfg.APIKey, timeout: cfg.Timeout}
	case "readability":
		r.backend = &readabilityBackend{
			http:         hc,
			timeout:      cfg.Timeout,
			sanitizer:    NewSanitizer(),
			allowPrivate: cfg.AllowPrivate,
			resolver:     net.DefaultResolver,
		}
	default:
		return nil, fmt.Errorf("unknown reader backend %q", cfg.Backend)
	}
	return r, nil
}

// ValidateURL parses target and requires an absolute http(s) URL.
func ValidateURL(target string) (*url.URL, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrInvalidURL
	}
	u, err := url.Parse(target)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// Extract returns the reader document for target as JSON.
func (r *Reader) Extract(ctx context.Context, target string) (json.RawMessage, error) {
	u, err := ValidateURL(target)
	if err != nil {
		return nil, err
	}
	doc, err := r.backend.extract(ctx, u)
	if err != nil {
		r.log.Warn("reader extract failed", zap.String("url", u.String()), zap.Error(err))
		return nil, err
	}
	return doc, nil
}
