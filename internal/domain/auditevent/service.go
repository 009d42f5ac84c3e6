package auditevent

import (
	"context"
	"unicode/utf8"

	"github.com/carepanel/carepanel/internal/platform/middleware"
	"github.com/carepanel/carepanel/pkg/pagination"
)

// Column widths from the audit_events table.
const (
	maxEmail     = 255
	maxRole      = 50
	maxResource  = 100
	maxPatientID = 36
	maxPath      = 500
	maxRemoteIP  = 64
	maxRequestID = 64
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordAccess persists one middleware audit entry. It satisfies
// middleware.AuditRecorder.
func (s *Service) RecordAccess(ctx context.Context, entry middleware.AuditEntry) error {
	e := &Event{
		ID:          entry.ID,
		OccurredAt:  entry.OccurredAt,
		CallerEmail: truncate(entry.CallerEmail, maxEmail),
		CallerRole:  truncate(entry.CallerRole, maxRole),
		Action:      entry.Action,
		Resource:    truncate(entry.Resource, maxResource),
		Method:      entry.Method,
		Path:        truncate(entry.Path, maxPath),
		Status:      entry.Status,
		RemoteIP:    truncate(entry.RemoteIP, maxRemoteIP),
		RequestID:   truncate(entry.RequestID, maxRequestID),
	}
	// Anything longer than an id column cannot name a stored patient.
	if id := entry.PatientID; id != "" && len(id) <= maxPatientID {
		e.PatientID = &id
	}
	return s.repo.Insert(ctx, e)
}

// ListLogs pages the audit log newest first.
func (s *Service) ListLogs(ctx context.Context, f Filter, w pagination.Window) (*LogPage, error) {
	items, total, err := s.repo.List(ctx, f, w)
	if err != nil {
		return nil, err
	}
	page := &LogPage{
		Logs:   make([]EventResponse, 0, len(items)),
		Total:  total,
		Limit:  w.Limit,
		Offset: w.Offset,
	}
	for _, e := range items {
		page.Logs = append(page.Logs, e.ToResponse())
	}
	return page, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
