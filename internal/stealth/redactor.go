package stealth

import (
	"net/http"
	"strings"
)

// SensitiveKeywords flags header names that should never appear unredacted
// in logs.
var SensitiveKeywords = []string{"authorization", "token", "key", "secret", "password", "credential", "api-key"}

// HeaderRedactor masks sensitive header values before they reach a log
// line, carried over from the teacher's internal/utils.HeaderRedactor.
type HeaderRedactor struct {
	sensitiveKeywords []string
}

func NewHeaderRedactor() *HeaderRedactor {
	return &HeaderRedactor{sensitiveKeywords: SensitiveKeywords}
}

func (hr *HeaderRedactor) IsSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range hr.sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (hr *HeaderRedactor) RedactHeaderValue(name, value string) string {
	if !hr.IsSensitiveHeader(name) {
		return value
	}
	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer ***"
	}
	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}
	return "***"
}

// Redact returns a log-safe string map for an http.Header, masking any
// sensitive values.
func (hr *HeaderRedactor) Redact(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		value := values[0]
		if hr.IsSensitiveHeader(name) {
			result[name] = hr.RedactHeaderValue(name, value)
		} else {
			result[name] = value
		}
	}
	return result
}
