package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
)

const maxHeaderValueSize = 8192

var scriptPattern = regexp.MustCompile(`(?i)(<script|javascript\s*:|on\w+\s*=)`)

// Sanitize answers 400 for requests carrying path traversal, null bytes,
// header injection, oversized headers or script payloads in the query.
// None of the API's routes accept such input legitimately.
func Sanitize() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if reason := rejectReason(c.Request()); reason != "" {
				return writeError(c, http.StatusBadRequest, reason)
			}
			return next(c)
		}
	}
}

func rejectReason(req *http.Request) string {
	for _, p := range []string{req.URL.Path, req.URL.RawPath} {
		switch {
		case traversal(p):
			return "path traversal detected"
		case hasNull(p):
			return "null byte in path"
		}
	}

	for name, values := range req.Header {
		for _, v := range values {
			if len(v) > maxHeaderValueSize {
				return "header value too large: " + name
			}
			if strings.ContainsAny(v, "\r\n") {
				return "header injection detected: " + name
			}
		}
	}

	for key, values := range req.URL.Query() {
		if hasNull(key) || scriptPattern.MatchString(key) {
			return "invalid query parameter"
		}
		for _, v := range values {
			if hasNull(v) || scriptPattern.MatchString(v) {
				return "invalid query parameter: " + key
			}
		}
	}
	return ""
}

func traversal(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(s, "..") || strings.Contains(lower, "%2e%2e") || strings.Contains(lower, "%252e")
}

func hasNull(s string) bool {
	return strings.ContainsRune(s, '\x00') || strings.Contains(strings.ToLower(s), "%00")
}

// SanitizeString strips null bytes and control characters (newline,
// carriage return and tab survive) and trims the result. Event titles,
// locations and notes pass through it before validation.
func SanitizeString(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r == '\x00' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	return strings.TrimSpace(cleaned)
}
