package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carepanel/carepanel/internal/platform/auth"
)

// recordTimeout bounds how long a recorder may take once the response is
// already decided.
const recordTimeout = 5 * time.Second

// auditedPrefixes are the route groups that touch patient information.
var auditedPrefixes = []string{
	"/api/v1/patients",
	"/api/v1/clinical",
	"/api/v1/administrative",
}

// AuditEntry is one PHI access event: who touched which patient, how, and
// with what outcome.
type AuditEntry struct {
	ID          string
	OccurredAt  time.Time
	CallerEmail string
	CallerRole  string
	Action      string // read, create, update, delete
	Resource    string
	PatientID   string
	Method      string
	Path        string
	Status      int
	RemoteIP    string
	RequestID   string
}

// AuditRecorder persists or counts audit entries.
type AuditRecorder interface {
	RecordAccess(ctx context.Context, entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(ctx context.Context, entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(ctx context.Context, entry AuditEntry) error {
	return f(ctx, entry)
}

// Audit emits a phi_access event for every request under the patient,
// clinical and administrative groups and hands it to each recorder.
// Recorder failures are logged and never change the response.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isAuditablePath(c.Request().URL.Path) {
				return next(c)
			}

			err := next(c)

			// Token verification runs inside next and swaps in a request
			// carrying the caller, so read it only now.
			req := c.Request()

			entry := AuditEntry{
				ID:         uuid.NewString(),
				OccurredAt: time.Now().UTC(),
				Action:     httpMethodToAction(req.Method),
				Resource:   resourceOf(c),
				PatientID:  patientIDOf(c),
				Method:     req.Method,
				Path:       req.URL.Path,
				Status:     c.Response().Status,
				RemoteIP:   c.RealIP(),
			}
			if err != nil {
				entry.Status = StatusOf(err)
			}
			if caller := callerOf(c); caller != nil {
				entry.CallerEmail = caller.Email
				entry.CallerRole = caller.Role
			}
			entry.RequestID, _ = c.Get("request_id").(string)

			if len(recorders) > 0 {
				ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), recordTimeout)
				for _, r := range recorders {
					if r == nil {
						continue
					}
					if recErr := r.RecordAccess(ctx, entry); recErr != nil {
						logger.Error().Err(recErr).
							Str("request_id", entry.RequestID).
							Msg("failed to record audit entry")
					}
				}
				cancel()
			}

			logger.Info().
				Str("type", "phi_access").
				Str("audit_id", entry.ID).
				Str("request_id", entry.RequestID).
				Str("caller_email", entry.CallerEmail).
				Str("caller_role", entry.CallerRole).
				Str("action", entry.Action).
				Str("resource", entry.Resource).
				Str("patient_id", entry.PatientID).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Int("status", entry.Status).
				Str("remote_ip", entry.RemoteIP).
				Msg("phi_access")

			return err
		}
	}
}

func callerOf(c echo.Context) *auth.Caller {
	if caller := auth.CallerFromContext(c.Request().Context()); caller != nil {
		return caller
	}
	caller, _ := c.Get(string(auth.CallerKey)).(*auth.Caller)
	return caller
}

func isAuditablePath(path string) bool {
	for _, prefix := range auditedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceOf names the accessed resource by its route template, e.g.
// "patients/:id/insurance". Unrouted requests fall back to the raw path.
func resourceOf(c echo.Context) string {
	route := c.Path()
	if route == "" || route == "/*" {
		route = c.Request().URL.Path
	}
	return strings.TrimPrefix(route, "/api/v1/")
}

// patientIDOf reads the patient id from the route parameters, then from
// the raw path for requests that never matched a route.
func patientIDOf(c echo.Context) string {
	path := c.Request().URL.Path
	if strings.HasPrefix(path, "/api/v1/patients/") {
		if id := c.Param("id"); id != "" {
			return id
		}
		rest := strings.TrimPrefix(path, "/api/v1/patients/")
		id, _, _ := strings.Cut(rest, "/")
		return id
	}
	return c.Param("patient_id")
}
