package patient

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/carepanel/carepanel/pkg/apperrors"
	"github.com/carepanel/carepanel/pkg/pagination"
)

// Last-visit buckets.
const (
	LastVisitWeek      = "last_week"
	LastVisitMonth     = "last_month"
	LastVisit3Months   = "last_3_months"
	LastVisit6Months   = "last_6_months"
	LastVisitYear      = "last_year"
	LastVisitOverAYear = "over_year"
)

const overAYearDays = 365

// lastVisitDays maps the "within" buckets to their look-back in days.
var lastVisitDays = map[string]int{
	LastVisitWeek:    7,
	LastVisitMonth:   30,
	LastVisit3Months: 90,
	LastVisit6Months: 180,
	LastVisitYear:    365,
}

func isValidLastVisit(s string) bool {
	_, ok := lastVisitDays[s]
	return ok || s == LastVisitOverAYear
}

// sortColumns is the allow-list of sortable wire fields.
var sortColumns = map[string]string{
	"firstName":         "first_name",
	"lastName":          "last_name",
	"dateOfBirth":       "date_of_birth",
	"createdAt":         "created_at",
	"status":            "status",
	"insuranceProvider": "insurance_provider",
}

const defaultSortColumn = "created_at"

// ListQuery is a validated patient list request.
type ListQuery struct {
	Page pagination.Params

	Search             string
	Status             string
	BloodType          string
	City               string
	State              string
	InsuranceProviders []string
	Allergy            string
	Medications        []string
	Conditions         []string
	LastVisit          string

	SortBy   string
	SortDesc bool
}

// SortColumn resolves SortBy through the allow-list. Unknown fields fall
// back to creation time.
func (q ListQuery) SortColumn() string {
	if col, ok := sortColumns[q.SortBy]; ok {
		return col
	}
	return defaultSortColumn
}

// ParseListQuery extracts and validates list parameters from the request.
func ParseListQuery(c echo.Context) (ListQuery, error) {
	page, err := pagination.FromContext(c)
	if err != nil {
		return ListQuery{}, err
	}

	q := ListQuery{
		Page:               page,
		Search:             strings.TrimSpace(c.QueryParam("search")),
		Status:             c.QueryParam("status"),
		BloodType:          c.QueryParam("blood_type"),
		City:               strings.TrimSpace(c.QueryParam("city")),
		State:              strings.TrimSpace(c.QueryParam("state")),
		InsuranceProviders: multi(c, "insurance_provider"),
		Allergy:            strings.TrimSpace(c.QueryParam("allergies")),
		Medications:        multi(c, "current_medications"),
		Conditions:         multi(c, "conditions"),
		LastVisit:          c.QueryParam("last_visit"),
		SortBy:             c.QueryParam("sort_by"),
		SortDesc:           true,
	}

	if q.Status != "" && !IsValidStatus(q.Status) {
		return q, apperrors.NewValidationErrorf("invalid status %q", q.Status)
	}
	if q.BloodType != "" && !IsValidBloodType(q.BloodType) {
		return q, apperrors.NewValidationErrorf("invalid blood_type %q", q.BloodType)
	}
	if q.LastVisit != "" && !isValidLastVisit(q.LastVisit) {
		return q, apperrors.NewValidationErrorf("invalid last_visit %q", q.LastVisit)
	}

	switch strings.ToLower(c.QueryParam("sort_order")) {
	case "", "desc":
	case "asc":
		q.SortDesc = false
	default:
		return q, apperrors.NewValidationError("sort_order must be asc or desc")
	}

	return q, nil
}

// multi returns the non-blank values of a repeatable query parameter.
func multi(c echo.Context, name string) []string {
	var out []string
	for _, v := range c.QueryParams()[name] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
