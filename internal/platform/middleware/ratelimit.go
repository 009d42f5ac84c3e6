package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/carepanel/carepanel/internal/platform/auth"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleExpiry drops a key's limiter after it has been idle this long.
	IdleExpiry time.Duration
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
		IdleExpiry:        3 * time.Minute,
	}
}

// clientKey identifies the limiter for a request: the authenticated caller
// when there is one, otherwise the client address.
func clientKey(c echo.Context) string {
	if email := auth.EmailFromContext(c.Request().Context()); email != "" {
		return "caller:" + email
	}
	return "ip:" + c.RealIP()
}

// retryAfterSeconds is the wait, rounded up, until one more token refills.
func retryAfterSeconds(rps float64) int {
	if rps <= 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/rps)))
}

// RateLimit limits each caller (or anonymous client address) to a token
// bucket. It must run after the token middleware for per-caller keys to
// apply. Denied requests get 429 with Retry-After.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RequestsPerSecond),
		Burst:     cfg.BurstSize,
		ExpiresIn: cfg.IdleExpiry,
	})
	retryAfter := strconv.Itoa(retryAfterSeconds(cfg.RequestsPerSecond))

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return clientKey(c), nil
		},
		DenyHandler: func(c echo.Context, _ string, err error) error {
			c.Response().Header().Set("Retry-After", retryAfter)
			return &echo.HTTPError{
				Code:     http.StatusTooManyRequests,
				Message:  "rate limit exceeded",
				Internal: err,
			}
		},
	})
}
