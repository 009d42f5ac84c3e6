// Package system serves the system-admin endpoints for user management
// and billing and system settings. The audit log lives in auditevent.
package system

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepanel/carepanel/internal/platform/auth"
	"github.com/carepanel/carepanel/pkg/apperrors"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/system", auth.RequireSystemAdmin())
	g.GET("/users", h.ListUsers)
	g.POST("/users", h.CreateUser)
	g.PUT("/users/:user_id", h.UpdateUser)
	g.DELETE("/users/:user_id", h.DeleteUser)
	g.GET("/billing/settings", h.GetBillingSettings)
	g.PUT("/billing/settings", h.UpdateBillingSettings)
	g.GET("/system/settings", h.GetSystemSettings)
	g.PUT("/system/settings", h.UpdateSystemSettings)
}

func (h *Handler) ListUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"users":   []any{},
		"message": "Users endpoint - requires system admin access",
	})
}

func (h *Handler) CreateUser(c echo.Context) error {
	user, err := bindObject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":       user,
		"created_by": actor(c),
		"message":    "User created",
	})
}

func (h *Handler) UpdateUser(c echo.Context) error {
	user, err := bindObject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":    c.Param("user_id"),
		"user":       user,
		"updated_by": actor(c),
		"message":    "User updated",
	})
}

func (h *Handler) DeleteUser(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":    c.Param("user_id"),
		"deleted_by": actor(c),
		"message":    "User deleted",
	})
}

func (h *Handler) GetBillingSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"settings": echo.Map{},
		"message":  "Billing settings endpoint - requires system admin access",
	})
}

func (h *Handler) UpdateBillingSettings(c echo.Context) error {
	settings, err := bindObject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"settings":   settings,
		"updated_by": actor(c),
		"message":    "Billing settings updated",
	})
}

func (h *Handler) GetSystemSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"settings": echo.Map{},
		"message":  "System settings endpoint - requires system admin access",
	})
}

func (h *Handler) UpdateSystemSettings(c echo.Context) error {
	settings, err := bindObject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"settings":   settings,
		"updated_by": actor(c),
		"message":    "System settings updated",
	})
}

func actor(c echo.Context) string {
	return auth.EmailFromContext(c.Request().Context())
}

func bindObject(c echo.Context) (map[string]any, error) {
	var body map[string]any
	if err := new(echo.DefaultBinder).BindBody(c, &body); err != nil || body == nil {
		return nil, apperrors.NewValidationError("request body must be a JSON object")
	}
	return body, nil
}
