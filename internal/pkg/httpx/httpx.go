package httpx

import (
	"context"
	"errors"
	"net"
)

// IsSuccessStatus reports whether code is in the 2xx range.
func IsSuccessStatus(code int) bool {
	return code >= 200 && code <= 299
}

// IsTimeoutError reports whether err terminated because a deadline fired,
// either the request context's or the transport's own.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// IsCancellation reports whether err comes from explicit context cancellation
// rather than a fired deadline.
func IsCancellation(err error) bool {
	return err != nil && errors.Is(err, context.Canceled)
}
