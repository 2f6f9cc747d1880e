package stealth

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// MaxHeaderValueLength bounds a single header value (8KB), matching the
// teacher's HeaderValidator limit.
const MaxHeaderValueLength = 8192

// ForbiddenHeaders are managed by the HTTP client itself and must never be
// set by a stealth preset or user override.
var ForbiddenHeaders = []string{"Host", "Content-Length", "Transfer-Encoding", "Connection"}

// ValidationError describes why a generated or user-supplied header was
// rejected, carried over from the teacher's models.ValidationError shape.
type ValidationError struct {
	Field      string
	HeaderName string
	Reason     string
	Suggestion string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("header validation failed [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (suggestion: %s)", e.Suggestion)
	}
	return msg
}

// HeaderValidator checks header names/values against RFC 7230 shape rules.
// Generalized from the teacher's internal/utils.HeaderValidator (originally
// written to validate crawl HTTP headers) and reused here to validate the
// header sets the stealth controller generates.
type HeaderValidator struct {
	nameRegex        *regexp.Regexp
	valueRegex       *regexp.Regexp
	maxValueLength   int
	forbiddenHeaders map[string]bool
}

func NewHeaderValidator() *HeaderValidator {
	forbidden := make(map[string]bool, len(ForbiddenHeaders))
	for _, h := range ForbiddenHeaders {
		forbidden[strings.ToLower(h)] = true
	}
	return &HeaderValidator{
		nameRegex:        regexp.MustCompile(`^[A-Za-z0-9-]+$`),
		valueRegex:       regexp.MustCompile(`^[\x20-\x7E\t]*$`),
		maxValueLength:   MaxHeaderValueLength,
		forbiddenHeaders: forbidden,
	}
}

func (hv *HeaderValidator) ValidateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", HeaderName: name, Reason: "header name must not be empty"}
	}
	if !hv.nameRegex.MatchString(name) {
		return &ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "header name contains illegal characters",
			Suggestion: "use letters, digits and hyphens (e.g. 'User-Agent')",
		}
	}
	return nil
}

func (hv *HeaderValidator) ValidateValue(name, value string) error {
	if len(value) > hv.maxValueLength {
		return &ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     fmt.Sprintf("header value too long: %d bytes (max %d)", len(value), hv.maxValueLength),
		}
	}
	if !hv.valueRegex.MatchString(value) {
		return &ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     "header value contains illegal characters",
			Suggestion: "remove control characters and non-ASCII bytes",
		}
	}
	return nil
}

func (hv *HeaderValidator) ValidateHeader(name, value string) error {
	if hv.IsForbidden(name) {
		return &ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "this header is managed by the HTTP client and cannot be overridden",
		}
	}
	if err := hv.ValidateName(name); err != nil {
		return err
	}
	return hv.ValidateValue(name, value)
}

func (hv *HeaderValidator) IsForbidden(name string) bool {
	return hv.forbiddenHeaders[strings.ToLower(name)]
}

// Validate checks every header/value pair, returning the first failure.
func (hv *HeaderValidator) Validate(headers http.Header) error {
	for name, values := range headers {
		for _, value := range values {
			if err := hv.ValidateHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
