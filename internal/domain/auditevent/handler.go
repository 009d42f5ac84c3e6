package auditevent

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepanel/carepanel/internal/platform/auth"
	"github.com/carepanel/carepanel/pkg/apperrors"
	"github.com/carepanel/carepanel/pkg/pagination"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 500
)

var validActions = map[string]bool{"read": true, "create": true, "update": true, "delete": true}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the audit log under the system-admin group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/system", auth.RequireSystemAdmin())
	g.GET("/audit-logs", h.ListAuditLogs)
}

func (h *Handler) ListAuditLogs(c echo.Context) error {
	w, err := pagination.WindowFromContext(c, defaultLogLimit, maxLogLimit)
	if err != nil {
		return err
	}
	f := Filter{
		PatientID:   c.QueryParam("patient_id"),
		CallerEmail: c.QueryParam("caller_email"),
		Action:      c.QueryParam("action"),
	}
	if f.Action != "" && !validActions[f.Action] {
		return apperrors.NewValidationError("action must be one of read, create, update, delete")
	}

	page, err := h.svc.ListLogs(c.Request().Context(), f, w)
	if err != nil {
		return apperrors.NewInternalError("list audit logs", err)
	}
	return c.JSON(http.StatusOK, page)
}
