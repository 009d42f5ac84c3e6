package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route paths that bypass authentication: the API banner,
// infrastructure endpoints and the login route.
var publicPaths = map[string]bool{
	"/":                  true,
	"/health":            true,
	"/health/db":         true,
	"/metrics":           true,
	"/api/v1/auth/login": true,
}

// AuthSkipper returns true for requests whose route should skip authentication.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path bypasses authentication.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
