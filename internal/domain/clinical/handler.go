// Package clinical serves the clinical-staff endpoints. Notes, vitals and
// medication management have no storage yet; writes echo the submitted
// payload with the acting caller.
package clinical

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
	g := api.Group("/clinical", auth.RequireClinical())
	g.GET("/notes/:patient_id", h.ListNotes)
	g.POST("/notes/:patient_id", h.CreateNote)
	g.GET("/vitals/:patient_id", h.ListVitals)
	g.POST("/vitals/:patient_id", h.UpdateVitals)
	g.GET("/medications/:patient_id", h.ListMedications)
	g.POST("/medications/:patient_id", h.ManageMedication)
}

func (h *Handler) ListNotes(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id": c.Param("patient_id"),
		"notes":      []any{},
		"message":    "Clinical notes endpoint - requires clinical staff access",
	})
}

func (h *Handler) CreateNote(c echo.Context) error {
	note, err := bindObject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id": c.Param("patient_id"),
		"note":       note,
		"created_by": callerEmail(c),
		"message":    "Clinical note created",
	})
}

func (h *Handler) ListVitals(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id": c.Param("patient_id"),
		"vitals":     []any{},
		"message":    "Vitals endpoint - requires clinical staff access",
	})
}

func (h *Handler) UpdateVitals(c echo.Context) error {
	vitals, err := bindObject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id": c.Param("patient_id"),
		"vitals":     vitals,
		"updated_by": callerEmail(c),
		"message":    "Vitals updated",
	})
}

func (h *Handler) ListMedications(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id":  c.Param("patient_id"),
		"medications": []any{},
		"message":     "Medications endpoint - requires clinical staff access",
	})
}

func (h *Handler) ManageMedication(c echo.Context) error {
	medication, err := bindObject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"patient_id": c.Param("patient_id"),
		"medication": medication,
		"managed_by": callerEmail(c),
		"message":    "Medication managed",
	})
}

// bindObject decodes a JSON object body. Anything else is a 422. Only the
// body is bound so route parameters never leak into the payload.
func bindObject(c echo.Context) (map[string]any, error) {
	var body map[string]any
	if err := new(echo.DefaultBinder).BindBody(c, &body); err != nil || body == nil {
		return nil, apperrors.NewValidationError("request body must be a JSON object")
	}
	return body, nil
}

func callerEmail(c echo.Context) string {
	return auth.EmailFromContext(c.Request().Context())
}
