package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsdesk/internal/httpclient"
)

type jinaBackend struct {
	http    httpclient.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

// JinaURL strips the scheme of target and appends it to base.
func JinaURL(base string, target *url.URL) string {
	s := target.String()
	s = strings.TrimPrefix(s, target.Scheme+"://")
	return strings.TrimRight(base, "/") + "/" + s
}

func (b *jinaBackend) extract(ctx context.Context, target *url.URL) (json.RawMessage, error) {
	headers := map[string]string{
		"Accept":               "application/json",
		"X-With-Links-Summary": "true",
	}
	if b.apiKey != "" {
		headers["Authorization"] = "Bearer " + b.apiKey
	}

	resp, err := httpclient.Call(ctx, b.http, "jina", b.timeout, httpclient.Request{
		Method:  http.MethodGet,
		URL:     JinaURL(b.baseURL, target),
		Headers: headers,
	})
	if err != nil {
		return nil, err
	}
	if !json.Valid(resp.Body()) {
		return nil, fmt.Errorf("jina: invalid JSON response")
	}
	return json.RawMessage(resp.Body()), nil
}
