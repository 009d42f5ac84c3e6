package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carepanel/carepanel/pkg/apperrors"
)

// maxQueryValueLen bounds a single query value. The longest legitimate
// values are free-text search terms and repeated provider names.
const maxQueryValueLen = 256

// Sanitize screens the request line before routing. Encoded traversal or
// NUL in the path is a 400; a query value with control characters, markup
// or excessive length is a 422 VALIDATION. Every rejection is logged.
func Sanitize(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := c.Request().URL

			reason := pathProblem(u)
			var err error
			if reason != "" {
				err = echo.NewHTTPError(http.StatusBadRequest, reason)
			} else if reason = queryProblem(u.Query()); reason != "" {
				err = apperrors.NewValidationError(reason)
			}
			if err == nil {
				return next(c)
			}

			logger.Warn().
				Str("path", u.Path).
				Str("remote_ip", c.RealIP()).
				Str("reason", reason).
				Msg("request rejected by sanitizer")
			return err
		}
	}
}

// pathProblem inspects both the decoded and the raw path so encoded
// sequences cannot slip past.
func pathProblem(u *url.URL) string {
	for _, p := range []string{u.Path, strings.ToLower(u.EscapedPath())} {
		switch {
		case strings.Contains(p, "..") || strings.Contains(p, "%2e%2e") || strings.Contains(p, "%252e"):
			return "Path traversal detected"
		case strings.ContainsRune(p, 0) || strings.Contains(p, "%00"):
			return "Null byte in path"
		}
	}
	return ""
}

func queryProblem(q url.Values) string {
	for key, values := range q {
		if hasControl(key) {
			return "Query parameter name contains control characters"
		}
		for _, v := range values {
			switch {
			case len(v) > maxQueryValueLen:
				return "Query parameter '" + key + "' is too long"
			case hasControl(v):
				return "Query parameter '" + key + "' contains control characters"
			case strings.ContainsAny(v, "<>"):
				return "Query parameter '" + key + "' contains markup"
			}
		}
	}
	return ""
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}
