package llm

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies delegated-extractor failures. The classification is
// decided once, at the adapter boundary, so callers never need to
// substring-match error messages to find out whether a fallback to the
// deterministic extractor is warranted.
type ErrorKind int

const (
	// KindUnexpected covers unclassified failures, including replies that
	// are not valid JSON or do not match the declared shape.
	KindUnexpected ErrorKind = iota
	// KindAuth means the upstream rejected our credentials. Not retryable.
	KindAuth
	// KindRateLimited means rate or quota exhaustion. Retry or fall back.
	KindRateLimited
	// KindUpstream means the service itself failed (5xx). Retry or fall back.
	KindUpstream
)

// Code returns the numeric error code surfaced in JSON output:
// 401 auth, 429 rate/quota, 502 upstream service, 0 unexpected.
func (k ErrorKind) Code() int {
	switch k {
	case KindAuth:
		return 401
	case KindRateLimited:
		return 429
	case KindUpstream:
		return 502
	default:
		return 0
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstream:
		return "upstream"
	default:
		return "unexpected"
	}
}

// ServiceError is the structured failure surfaced by the delegated
// extractor. Every failure mode becomes one of these; no raw fault
// propagates to callers.
type ServiceError struct {
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration // nonzero only for rate-limited failures
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Kind.Code(), e.Message)
}

// Retryable reports whether a retry (or fallback to the deterministic
// extractor) makes sense for this failure.
func (e *ServiceError) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindUpstream
}

// ErrorPayload is the JSON error shape returned to presentation layers.
type ErrorPayload struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Payload converts any error into the JSON error shape. Non-service errors
// come out as unexpected (code 0).
func Payload(err error) ErrorPayload {
	var se *ServiceError
	if errors.As(err, &se) {
		return ErrorPayload{ErrorCode: se.Kind.Code(), ErrorMessage: se.Message}
	}
	return ErrorPayload{ErrorCode: 0, ErrorMessage: err.Error()}
}

// classifyStatus maps an upstream HTTP status to an error kind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimited
	case status >= 500:
		return KindUpstream
	default:
		return KindUnexpected
	}
}
