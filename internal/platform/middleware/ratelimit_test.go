package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carepanel/carepanel/internal/platform/auth"
)

// limitedEcho mounts RateLimit behind an optional caller injector, the way
// the token middleware precedes it in the server.
func limitedEcho(cfg RateLimitConfig) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(zerolog.Nop())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if email := c.Request().Header.Get("X-Test-Caller"); email != "" {
				ctx := auth.WithCaller(c.Request().Context(), &auth.Caller{Email: email, Role: "doctor"})
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	})
	e.Use(RateLimit(cfg))
	e.GET("/api/v1/patients", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func limitedGet(e *echo.Echo, caller, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	if caller != "" {
		req.Header.Set("X-Test-Caller", caller)
	}
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_BurstThenDeny(t *testing.T) {
	e := limitedEcho(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3})

	for i := 0; i < 3; i++ {
		if rec := limitedGet(e, "nurse@example.com", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := limitedGet(e, "nurse@example.com", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("expected Retry-After 1, got %q", got)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Kind != "TOO_MANY_REQUESTS" || body.Detail != "rate limit exceeded" {
		t.Errorf("unexpected error body %+v", body)
	}
}

func TestRateLimit_CallersHaveSeparateBuckets(t *testing.T) {
	e := limitedEcho(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	if rec := limitedGet(e, "a@example.com", ""); rec.Code != http.StatusOK {
		t.Fatalf("caller a first request: %d", rec.Code)
	}
	if rec := limitedGet(e, "a@example.com", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("caller a second request: expected 429, got %d", rec.Code)
	}
	if rec := limitedGet(e, "b@example.com", ""); rec.Code != http.StatusOK {
		t.Errorf("caller b should not share a's bucket: %d", rec.Code)
	}
}

func TestRateLimit_AnonymousKeyedByAddress(t *testing.T) {
	e := limitedEcho(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	if rec := limitedGet(e, "", "10.0.0.1:4000"); rec.Code != http.StatusOK {
		t.Fatalf("first address: %d", rec.Code)
	}
	if rec := limitedGet(e, "", "10.0.0.1:4001"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("same address, new port: expected 429, got %d", rec.Code)
	}
	if rec := limitedGet(e, "", "10.0.0.2:4000"); rec.Code != http.StatusOK {
		t.Errorf("second address: %d", rec.Code)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 50 || cfg.BurstSize != 100 || cfg.IdleExpiry <= 0 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := map[float64]int{
		0:    1,
		50:   1,
		1:    1,
		0.5:  2,
		0.25: 4,
	}
	for rps, want := range tests {
		if got := retryAfterSeconds(rps); got != want {
			t.Errorf("retryAfterSeconds(%v) = %d, want %d", rps, got, want)
		}
	}
}

func TestClientKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	c := e.NewContext(req, httptest.NewRecorder())

	if got := clientKey(c); got != "ip:10.0.0.7" {
		t.Errorf("anonymous key: got %q", got)
	}
	ctx := auth.WithCaller(c.Request().Context(), &auth.Caller{Email: "nurse@example.com", Role: "nurse"})
	c.SetRequest(c.Request().WithContext(ctx))
	if got := clientKey(c); got != "caller:nurse@example.com" {
		t.Errorf("caller key: got %q", got)
	}
}
