package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/carepanel/carepanel/pkg/apperrors"
)

type contextKey string

const CallerKey contextKey = "caller"

// Caller is the authenticated identity behind a request.
type Caller struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Tiers returns the tiers the caller's role belongs to.
func (c *Caller) Tiers() []Tier {
	return Classify(c.Role)
}

type JWTConfig struct {
	Tokens  *TokenIssuer
	Users   UserStore
	Skipper middleware.Skipper
}

// JWTMiddleware verifies the bearer token and resolves its subject through
// the identity store. Any failure is reported as UNAUTHORIZED.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = middleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return apperrors.NewUnauthorizedError("Not authenticated")
			}

			scheme, tokenStr, found := strings.Cut(authHeader, " ")
			tokenStr = strings.TrimSpace(tokenStr)
			if !found || !strings.EqualFold(scheme, "bearer") || tokenStr == "" {
				return apperrors.NewUnauthorizedError("Invalid authorization format")
			}

			claims, err := cfg.Tokens.Verify(tokenStr)
			if err != nil {
				return &apperrors.AppError{
					Type:    apperrors.ErrorTypeUnauthorized,
					Message: "Could not validate credentials",
					Err:     err,
				}
			}

			ctx := c.Request().Context()
			user, err := cfg.Users.FindByEmail(ctx, claims.Subject)
			if errors.Is(err, ErrUserNotFound) {
				return apperrors.NewUnauthorizedError("Could not validate credentials")
			}
			if err != nil {
				return apperrors.NewInternalError("resolve caller", err)
			}

			caller := &Caller{Email: user.Email, Name: user.Name, Role: user.Role}
			c.SetRequest(c.Request().WithContext(WithCaller(ctx, caller)))
			c.Set(string(CallerKey), caller)

			return next(c)
		}
	}
}

// WithCaller stores caller in ctx.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// CallerFromContext returns the authenticated caller, or nil.
func CallerFromContext(ctx context.Context) *Caller {
	caller, _ := ctx.Value(CallerKey).(*Caller)
	return caller
}

// EmailFromContext returns the caller email, or "" when unauthenticated.
func EmailFromContext(ctx context.Context) string {
	if c := CallerFromContext(ctx); c != nil {
		return c.Email
	}
	return ""
}
