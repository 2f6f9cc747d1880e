package models

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
	whatwgUrl "github.com/nlnwa/whatwg-url/url"
)

var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

// ValidateURL enforces the http(s)-with-host rule used at every entry
// point (HTTP handlers, CLI, spider seeding) before a URL reaches the
// frontier.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return NewError(ErrInvalidURL, "malformed URL", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return NewError(ErrInvalidURL, "URL must use http or https", nil)
	}
	if parsed.Host == "" {
		return NewError(ErrInvalidURL, "URL must include a host", nil)
	}
	return nil
}

// NormalizeURL applies the WHATWG URL standard (percent-encoding,
// lowercased host, default-port stripping, dot-segment resolution) so
// that the frontier and cache key on equivalent URLs rather than
// byte-identical ones. Falls back to the raw input if it doesn't parse
// as a URL at all; ValidateURL is what actually rejects bad input.
func NormalizeURL(raw string) string {
	u, err := urlParser.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Href(false)
}

// NewID generates a unique identifier for tasks, jobs and checkpoints.
func NewID() string {
	return uuid.New().String()
}

// CanonicalKey builds a cache/dedup key from a normalized URL and an
// extraction mode tag, matching spec invariant 4 ("cached under key K").
func CanonicalKey(normalizedURL, mode string) string {
	return fmt.Sprintf("%s::%s", NormalizeURL(normalizedURL), mode)
}
