// Package administrative serves the office-staff endpoints for
// demographics, insurance, schedules and administrative documents.
package administrative

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
	g := api.Group("/administrative", auth.RequireAdmin())
	g.GET("/demographics/:patient_id", h.GetDemographics)
	g.PUT("/demographics/:patient_id", h.UpdateDemographics)
	g.GET("/insurance/:patient_id", h.GetInsurance)
	g.PUT("/insurance/:patient_id", h.UpdateInsurance)
	g.GET("/schedules", h.ListSchedules)
	g.POST("/documents/:patient_id", h.UploadDocument)
}

func (h *Handler) GetDemographics(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id":   c.Param("patient_id"),
		"demographics": echo.Map{},
		"message":      "Demographics endpoint - requires admin access",
	})
}

func (h *Handler) UpdateDemographics(c echo.Context) error {
	demographics, err := bindObject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id":   c.Param("patient_id"),
		"demographics": demographics,
		"updated_by":   auth.EmailFromContext(c.Request().Context()),
		"message":      "Demographics updated",
	})
}

func (h *Handler) GetInsurance(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id": c.Param("patient_id"),
		"insurance":  echo.Map{},
		"message":    "Insurance endpoint - requires admin access",
	})
}

func (h *Handler) UpdateInsurance(c echo.Context) error {
	insurance, err := bindObject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id": c.Param("patient_id"),
		"insurance":  insurance,
		"updated_by": auth.EmailFromContext(c.Request().Context()),
		"message":    "Insurance information updated",
	})
}

func (h *Handler) ListSchedules(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"schedules": []any{},
		"message":   "Schedules endpoint - requires admin access",
	})
}

func (h *Handler) UploadDocument(c echo.Context) error {
	document, err := bindObject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id":  c.Param("patient_id"),
		"document":    document,
		"uploaded_by": auth.EmailFromContext(c.Request().Context()),
		"message":     "Administrative document uploaded",
	})
}

func bindObject(c echo.Context) (map[string]any, error) {
	var body map[string]any
	if err := new(echo.DefaultBinder).BindBody(c, &body); err != nil || body == nil {
		return nil, apperrors.NewValidationError("request body must be a JSON object")
	}
	return body, nil
}
