package auditevent

import "time"

// Event is a persisted PHI access record.
type Event struct {
	ID          string
	OccurredAt  time.Time
	CallerEmail string
	CallerRole  string
	Action      string
	Resource    string
	PatientID   *string
	Method      string
	Path        string
	Status      int
	RemoteIP    string
	RequestID   string
}

// EventResponse is the wire form of an Event.
type EventResponse struct {
	ID          string  `json:"id"`
	OccurredAt  string  `json:"occurredAt"`
	CallerEmail string  `json:"callerEmail"`
	CallerRole  string  `json:"callerRole"`
	Action      string  `json:"action"`
	Resource    string  `json:"resource"`
	PatientID   *string `json:"patientId"`
	Method      string  `json:"method"`
	Path        string  `json:"path"`
	Status      int     `json:"status"`
	RemoteIP    string  `json:"remoteIp"`
	RequestID   string  `json:"requestId"`
}

func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:          e.ID,
		OccurredAt:  e.OccurredAt.UTC().Format(time.RFC3339Nano),
		CallerEmail: e.CallerEmail,
		CallerRole:  e.CallerRole,
		Action:      e.Action,
		Resource:    e.Resource,
		PatientID:   e.PatientID,
		Method:      e.Method,
		Path:        e.Path,
		Status:      e.Status,
		RemoteIP:    e.RemoteIP,
		RequestID:   e.RequestID,
	}
}

// Filter narrows an audit log listing. Empty fields match everything.
type Filter struct {
	PatientID   string
	CallerEmail string
	Action      string
}

// LogPage is the audit-logs response body.
type LogPage struct {
	Logs   []EventResponse `json:"logs"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
