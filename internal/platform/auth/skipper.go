package auth

import (
	"path"

	"github.com/labstack/echo/v4"
)

// Probe endpoints answer without a token.
var publicRoutes = []string{"/health", "/health/db"}

// AuthSkipper reports whether the request targets a probe endpoint. The
// matched route is preferred; unmatched requests fall back to the cleaned
// URL path so "/health/" and "/health" agree.
func AuthSkipper(c echo.Context) bool {
	if p := c.Path(); p != "" && IsPublicPath(p) {
		return true
	}
	return IsPublicPath(c.Request().URL.Path)
}

func IsPublicPath(p string) bool {
	if p == "" {
		return false
	}
	p = path.Clean(p)
	for _, r := range publicRoutes {
		if p == r {
			return true
		}
	}
	return false
}
