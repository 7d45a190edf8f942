package registry

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Header names reported by Docker Hub on manifest responses.
const (
	HeaderSource    = "docker-ratelimit-source"
	HeaderLimit     = "ratelimit-limit"
	HeaderRemaining = "ratelimit-remaining"
)

// RateLimitHeaders carries the raw rate limit header values from a manifest
// response. Any field may be empty when the header was absent.
type RateLimitHeaders struct {
	Source    string
	Limit     string
	Remaining string
}

// Unlimited reports whether the response carried no rate limit at all.
func (h RateLimitHeaders) Unlimited() bool {
	return h.Limit == "" && h.Remaining == ""
}

// ExtractRateLimitHeaders pulls the rate limit headers out of a response
// header set. Lookups are case-insensitive and stray carriage returns are
// stripped from the values.
func ExtractRateLimitHeaders(header http.Header) RateLimitHeaders {
	return RateLimitHeaders{
		Source:    headerValue(header, HeaderSource),
		Limit:     headerValue(header, HeaderLimit),
		Remaining: headerValue(header, HeaderRemaining),
	}
}

func headerValue(header http.Header, name string) string {
	if header == nil {
		return ""
	}
	value := header.Get(name)
	value = strings.ReplaceAll(value, "\r", "")
	return strings.TrimSpace(value)
}

// Descriptor is a parsed rate limit header value of the form
// "<count>;w=<window>": a request count over a window in seconds.
type Descriptor struct {
	Count         int `json:"count"`
	WindowSeconds int `json:"window_seconds"`
}

// ParseDescriptor parses a rate limit header value. Tokens are separated by
// semicolons; the bare numeric token is the count and the "w=<n>" token is
// the window. Token order is not significant.
func ParseDescriptor(value string) (Descriptor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Descriptor{}, fmt.Errorf("empty rate limit value")
	}

	var (
		desc      Descriptor
		haveCount bool
		haveWin   bool
	)

	for _, token := range strings.Split(value, ";") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if window, ok := strings.CutPrefix(token, "w="); ok {
			parsed, err := strconv.Atoi(strings.TrimSpace(window))
			if err != nil {
				return Descriptor{}, fmt.Errorf("invalid window in %q: %w", value, err)
			}
			desc.WindowSeconds = parsed
			haveWin = true
			continue
		}

		if parsed, err := strconv.Atoi(token); err == nil {
			desc.Count = parsed
			haveCount = true
		}
	}

	if !haveCount {
		return Descriptor{}, fmt.Errorf("no count in rate limit value %q", value)
	}
	if !haveWin {
		return Descriptor{}, fmt.Errorf("no window in rate limit value %q", value)
	}

	return desc, nil
}
