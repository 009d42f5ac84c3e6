package auth

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/carepanel/carepanel/pkg/apperrors"
)

// Authorize returns caller unchanged when its role satisfies at least one
// of the required tiers. It has no side effects.
func Authorize(caller *Caller, required ...Tier) (*Caller, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorizedError("Could not validate credentials")
	}
	if !Satisfies(caller.Role, required...) {
		return nil, apperrors.NewPermissionDeniedError(
			"Insufficient permissions. Required roles: " + tierNames(required))
	}
	return caller, nil
}

// AuthorizeContext applies Authorize to the caller stored in ctx.
func AuthorizeContext(ctx context.Context, required ...Tier) (*Caller, error) {
	return Authorize(CallerFromContext(ctx), required...)
}

// RequireTier returns middleware that rejects callers outside the given tiers
// before the handler runs.
func RequireTier(required ...Tier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := AuthorizeContext(c.Request().Context(), required...); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// RequireClinical admits clinical staff (and system admins).
func RequireClinical() echo.MiddlewareFunc { return RequireTier(TierClinical) }

// RequireAdmin admits admin and office staff (and system admins).
func RequireAdmin() echo.MiddlewareFunc { return RequireTier(TierAdmin) }

// RequireSystemAdmin admits system admins only.
func RequireSystemAdmin() echo.MiddlewareFunc { return RequireTier(TierSystemAdmin) }

// RequireAnyStaff admits every authenticated tier.
func RequireAnyStaff() echo.MiddlewareFunc { return RequireTier(AllTiers...) }
