package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"newsdesk/internal/metrics"
)

// StatusError is a non-2xx answer from an upstream service.
type StatusError struct {
	Service    string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.Service, e.StatusCode)
}

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Call performs one request under its own deadline. The deadline fires once
// and the call is never retried. Non-2xx answers become *StatusError.
func Call(ctx context.Context, c Client, service string, timeout time.Duration, req Request) (Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.Do(ctx, req)
	elapsed := time.Since(start).Seconds()

	switch {
	case err != nil && IsTimeout(err):
		metrics.RecordUpstream(service, "timeout", elapsed)
		return nil, fmt.Errorf("%s: %w", service, err)
	case err != nil:
		metrics.RecordUpstream(service, "error", elapsed)
		return nil, fmt.Errorf("%s: %w", service, err)
	case resp.StatusCode() < 200 || resp.StatusCode() > 299:
		metrics.RecordUpstream(service, "status", elapsed)
		return resp, &StatusError{Service: service, StatusCode: resp.StatusCode(), Body: resp.Body()}
	}
	metrics.RecordUpstream(service, "ok", elapsed)
	return resp, nil
}
