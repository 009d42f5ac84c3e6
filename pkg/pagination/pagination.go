package pagination

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/carepanel/carepanel/pkg/apperrors"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*MaxPageSize well inside a Postgres bigint
	// OFFSET on every platform.
	MaxPage = math.MaxInt32
)

// Params holds page-number pagination extracted from a request.
type Params struct {
	Page     int
	PageSize int
}

// FromContext reads page and page_size. Absent values take defaults;
// malformed or out-of-range values are a validation error.
func FromContext(c echo.Context) (Params, error) {
	p := Params{Page: 1, PageSize: DefaultPageSize}

	if raw := c.QueryParam("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxPage {
			return p, apperrors.NewValidationErrorf("page must be an integer between 1 and %d", MaxPage)
		}
		p.Page = v
	}

	if raw := c.QueryParam("page_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxPageSize {
			return p, apperrors.NewValidationErrorf("page_size must be an integer between 1 and %d", MaxPageSize)
		}
		p.PageSize = v
	}

	return p, nil
}

// Offset is the number of rows preceding the page. Pages outside
// [1, MaxPage] are clamped.
func (p Params) Offset() int {
	page := min(max(p.Page, 1), MaxPage)
	return (page - 1) * max(p.PageSize, 0)
}

// TotalPages is ceil(total/pageSize), or 0 when there is nothing to page.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Page wraps a paginated API response.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

func NewPage[T any](items []T, total int, p Params) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: TotalPages(total, p.PageSize),
	}
}

// Window holds limit/offset pagination for append-only feeds.
type Window struct {
	Limit  int
	Offset int
}

// WindowFromContext reads limit and offset, applying defaultLimit when
// limit is absent.
func WindowFromContext(c echo.Context, defaultLimit, maxLimit int) (Window, error) {
	w := Window{Limit: defaultLimit}

	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxLimit {
			return w, apperrors.NewValidationErrorf("limit must be an integer between 1 and %d", maxLimit)
		}
		w.Limit = v
	}

	if raw := c.QueryParam("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return w, apperrors.NewValidationError("offset must be an integer >= 0")
		}
		w.Offset = v
	}

	return w, nil
}
