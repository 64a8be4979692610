package backend

import (
	"errors"
	"fmt"
	"time"
)

// FailureKind is the normalized taxonomy for a failed request. Every kind is
// recoverable by a user-initiated retry; none is fatal to the process.
type FailureKind string

const (
	FailureTimeout    FailureKind = "timeout"
	FailureTransport  FailureKind = "transport"
	FailureHTTPStatus FailureKind = "http_status"
	FailureDecode     FailureKind = "decode"
)

// RequestError is the typed outcome of a failed backend call.
type RequestError struct {
	Kind   FailureKind
	Path   string
	Status int           // set for FailureHTTPStatus
	Body   string        // best-effort response body (truncated for decode failures)
	Budget time.Duration // set for FailureTimeout
	Err    error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case FailureTimeout:
		return fmt.Sprintf("backend timeout after %s on %s", e.Budget, e.Path)
	case FailureHTTPStatus:
		return fmt.Sprintf("backend http %d on %s: %s", e.Status, e.Path, e.Body)
	case FailureDecode:
		return fmt.Sprintf("backend decode error on %s: %v; raw=%s", e.Path, e.Err, e.Body)
	default:
		return fmt.Sprintf("backend transport error on %s: %v", e.Path, e.Err)
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// AsRequestError unwraps err into a *RequestError when it carries one.
func AsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// KindOf returns the failure kind of err, or "" when err is not a RequestError.
func KindOf(err error) FailureKind {
	if re, ok := AsRequestError(err); ok {
		return re.Kind
	}
	return ""
}
