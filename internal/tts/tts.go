// Package tts proxies speech synthesis requests and names the resulting
// audio files.
package tts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"newsdesk/config"
	"newsdesk/internal/httpclient"
)

// ErrMissingFields is returned when text, name or voice is empty.
var ErrMissingFields = errors.New("missing required parameters: text, name, voice")

const (
	defaultRate   = "-4%"
	defaultVolume = "+0%"
)

// Request is the body accepted by the synthesis service.
type Request struct {
	Text   string `json:"text"`
	Name   string `json:"name"`
	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	Volume string `json:"volume"`
}

// Validate checks the required fields.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" || strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Voice) == "" {
		return ErrMissingFields
	}
	return nil
}

type Client struct {
	http     httpclient.Client
	log      *zap.Logger
	apiURL   string
	filesURL string
	voice    string
	rate     string
	volume   string
	timeout  time.Duration
}

func New(cfg config.TTSConfig, hc httpclient.Client, log *zap.Logger) *Client {
	if hc == nil {
		hc = httpclient.NewRestyClient(httpclient.Options{})
	}
	c := &Client{
		http:     hc,
		log:      log,
		apiURL:   cfg.APIURL,
		filesURL: strings.TrimRight(cfg.FilesURL, "/"),
		voice:    cfg.Voice,
		rate:     cfg.Rate,
		volume:   cfg.Volume,
		timeout:  cfg.Timeout,
	}
	if c.rate == "" {
		c.rate = defaultRate
	}
	if c.volume == "" {
		c.volume = defaultVolume
	}
	return c
}

// Voice is the voice pages ask for.
func (c *Client) Voice() string { return c.voice }

// Synthesize forwards req and returns the service's JSON answer.
func (c *Client) Synthesize(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Rate == "" {
		req.Rate = c.rate
	}
	if req.Volume == "" {
		req.Volume = c.volume
	}

	resp, err := httpclient.Call(ctx, c.http, "tts", c.timeout, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.apiURL,
		Body:   req,
	})
	if err != nil {
		c.log.Error("tts request failed", zap.String("name", req.Name), zap.Error(err))
		return nil, err
	}
	if !json.Valid(resp.Body()) {
		return nil, fmt.Errorf("tts: invalid JSON response")
	}
	return json.RawMessage(resp.Body()), nil
}

// FileName is the audio name of a post in one language, e.g. "42_en".
func FileName(postID, lang string) string {
	if lang == "" {
		lang = "en"
	}
	return postID + "_" + lang
}

// AudioURL is where the service publishes the synthesized file.
func (c *Client) AudioURL(name string) string {
	return c.filesURL + "/files/" + name + ".mp3"
}
