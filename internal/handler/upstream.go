package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"newsdesk/internal/httpclient"
	"newsdesk/internal/reader"
	"newsdesk/internal/tts"
	"newsdesk/internal/upstream"
)

const (
	marketsLimit = 10
	generalLimit = 50
	popularLimit = 10
)

func (h *Handler) stories(c *gin.Context, brand string, defLimit int) {
	raw, err := h.bloomberg.Stories(c.Request.Context(), upstream.StoriesRequest{
		Brand: brand,
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", defLimit),
	})
	if err != nil {
		h.upstreamError(c, "Bloomberg", err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (h *Handler) BloombergMarkets(c *gin.Context)   { h.stories(c, upstream.BrandMarkets, marketsLimit) }
func (h *Handler) BloombergEconomics(c *gin.Context) { h.stories(c, upstream.BrandEconomics, marketsLimit) }
func (h *Handler) BloombergGeneral(c *gin.Context)   { h.stories(c, "", generalLimit) }

func (h *Handler) BloombergPopular(c *gin.Context) {
	raw, err := h.bloomberg.Popular(c.Request.Context(), queryInt(c, "limit", popularLimit))
	if err != nil {
		h.upstreamError(c, "Bloomberg", err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// JinaReader returns the readable form of {"url": "..."}.
func (h *Handler) JinaReader(c *gin.Context) {
	var body struct {
		URL any `json:"url"`
	}
	if err := bindJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}
	target, ok := body.URL.(string)
	if !ok || target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required and must be a string."})
		return
	}

	doc, err := h.reader.Extract(c.Request.Context(), target)
	var se *httpclient.StatusError
	switch {
	case err == nil:
		c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
	case errors.Is(err, reader.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &se):
		c.JSON(se.StatusCode, gin.H{"error": fmt.Sprintf("Reader API Error: %d - %s", se.StatusCode, string(se.Body))})
	case httpclient.IsTimeout(err):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Reader request timed out"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error: " + err.Error()})
	}
}

// TTSProxy forwards a synthesis request and relays the service's answer.
func (h *Handler) TTSProxy(c *gin.Context) {
	var req tts.Request
	if err := bindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "request body must be a JSON object"})
		return
	}

	out, err := h.tts.Synthesize(c.Request.Context(), req)
	switch {
	case err == nil:
		c.Data(http.StatusOK, "application/json; charset=utf-8", out)
	case errors.Is(err, tts.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required parameters: text, name, voice"})
	case h.forwardStatus(c, "tts", err):
	case httpclient.IsTimeout(err):
		c.JSON(http.StatusGatewayTimeout, gin.H{"message": "TTS request timed out"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error", "error": err.Error()})
	}
}
