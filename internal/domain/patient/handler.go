package patient

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepanel/carepanel/internal/platform/auth"
	"github.com/carepanel/carepanel/pkg/apperrors"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the patient API. Every staff tier may read and
// write patient records.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patients", auth.RequireAnyStaff())
	g.POST("", h.CreatePatient)
	g.GET("", h.ListPatients)
	g.GET("/:id", h.GetPatient)
	g.PATCH("/:id/personal-info", h.UpdatePersonalInfo)
	g.PATCH("/:id/emergency-contact", h.UpdateEmergencyContact)
	g.PATCH("/:id/insurance", h.UpdateInsurance)
	g.PATCH("/:id/medical-info", h.UpdateMedicalInfo)
	g.PATCH("/:id/medications", h.ReplaceMedications)
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperrors.NewValidationError("invalid request body")
	}
	return nil
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req CreatePatientRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	q, err := ParseListQuery(c)
	if err != nil {
		return err
	}
	page, err := h.svc.ListPatients(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePersonalInfo(c echo.Context) error {
	var u PersonalInfoUpdate
	if err := bind(c, &u); err != nil {
		return err
	}
	p, err := h.svc.UpdatePersonalInfo(c.Request().Context(), c.Param("id"), &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateEmergencyContact(c echo.Context) error {
	var u EmergencyContactUpdate
	if err := bind(c, &u); err != nil {
		return err
	}
	p, err := h.svc.UpdateEmergencyContact(c.Request().Context(), c.Param("id"), &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateInsurance(c echo.Context) error {
	var u InsuranceUpdate
	if err := bind(c, &u); err != nil {
		return err
	}
	p, err := h.svc.UpdateInsurance(c.Request().Context(), c.Param("id"), &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateMedicalInfo(c echo.Context) error {
	var u MedicalInfoUpdate
	if err := bind(c, &u); err != nil {
		return err
	}
	p, err := h.svc.UpdateMedicalInfo(c.Request().Context(), c.Param("id"), &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ReplaceMedications(c echo.Context) error {
	var req MedicationsReplace
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.ReplaceMedications(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
