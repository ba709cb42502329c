package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsdesk/internal/httpclient"
	"newsdesk/internal/logger"
)

// queryInt reads a positive integer query parameter. Missing or malformed
// values give def; values below one are raised to one.
func queryInt(c *gin.Context, key string, def int) int {
	raw, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n < 1 {
		return 1
	}
	return n
}

// upstreamError maps a failed third-party call: deadline → 504, upstream
// status → 502 carrying it, anything else → 502.
func (h *Handler) upstreamError(c *gin.Context, service string, err error) {
	var se *httpclient.StatusError
	switch {
	case httpclient.IsTimeout(err):
		h.log.Warn("upstream timeout", zap.String("service", service), zap.Error(err))
		c.JSON(http.StatusGatewayTimeout, gin.H{"message": "Request to " + service + " timed out"})
	case errors.As(err, &se):
		h.log.Error("upstream status",
			zap.String("service", service),
			zap.Int("status", se.StatusCode),
			zap.String("body", logger.Snippet(se.Body)))
		c.JSON(http.StatusBadGateway, gin.H{
			"message":         "Error fetching from " + service,
			"error":           se.Error(),
			"upstream_status": se.StatusCode,
		})
	default:
		h.log.Error("upstream failure", zap.String("service", service), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Error fetching from " + service, "error": err.Error()})
	}
}

// forwardStatus relays a proxied service's own error status and body.
func (h *Handler) forwardStatus(c *gin.Context, service string, err error) bool {
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return false
	}
	h.log.Warn("proxy upstream error",
		zap.String("service", service),
		zap.Int("status", se.StatusCode),
		zap.String("body", logger.Snippet(se.Body)))
	contentType := "text/plain; charset=utf-8"
	if len(se.Body) > 0 && (se.Body[0] == '{' || se.Body[0] == '[') {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(se.StatusCode, contentType, se.Body)
	return true
}
