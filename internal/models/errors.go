package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind is the closed taxonomy from spec §7. Callers dispatch on Kind
// with errors.As + a type switch, never on error message text.
type ErrorKind string

const (
	ErrInvalidURL        ErrorKind = "invalid_url"
	ErrInvalidRequest    ErrorKind = "invalid_request"
	ErrRateLimited       ErrorKind = "rate_limited"
	ErrMemoryPressure    ErrorKind = "memory_pressure"
	ErrResourceExhausted ErrorKind = "resource_exhausted"
	ErrTimeout           ErrorKind = "timeout"
	ErrCircuitOpen       ErrorKind = "circuit_open"
	ErrNetwork           ErrorKind = "network"
	ErrPipeline          ErrorKind = "pipeline"
	ErrExtraction        ErrorKind = "extraction"
	ErrSerialization     ErrorKind = "serialization"
	ErrProtocol          ErrorKind = "protocol"
	ErrPermissionDenied  ErrorKind = "permission_denied"
)

// CrawlError is the structured error type every component boundary returns
// (pipeline->spider, pipeline->stream, resource manager->caller). It never
// discards the kind behind a plain string the way ad hoc fmt.Errorf chains
// do internally.
type CrawlError struct {
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration // set when Kind == ErrRateLimited
	Retryable  bool
	Cause      error
}

func (e *CrawlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CrawlError) Unwrap() error { return e.Cause }

// NewError builds a CrawlError, marking the transient classes retryable by
// default per spec §7 (network, timeout, 5xx, rate-limit-with-retry-after).
func NewError(kind ErrorKind, msg string, cause error) *CrawlError {
	return &CrawlError{
		Kind:      kind,
		Message:   msg,
		Retryable: isRetryableKind(kind),
		Cause:     cause,
	}
}

func isRetryableKind(k ErrorKind) bool {
	switch k {
	case ErrNetwork, ErrTimeout, ErrRateLimited:
		return true
	default:
		return false
	}
}

// RateLimitedError builds the RateLimited variant, which always carries a
// retry-after duration the caller schedules against.
func RateLimitedError(retryAfter time.Duration) *CrawlError {
	return &CrawlError{
		Kind:       ErrRateLimited,
		Message:    "rate limited",
		RetryAfter: retryAfter,
		Retryable:  true,
	}
}

// KindOf extracts the ErrorKind from any error in the chain, defaulting to
// ErrPipeline for unstructured errors so callers always have something to
// switch on.
func KindOf(err error) ErrorKind {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ErrPipeline
}
