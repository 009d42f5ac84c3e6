package auditevent

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/carepanel/carepanel/pkg/pagination"
)

var dialect = goqu.Dialect("postgres")

const table = "audit_events"

var eventColumns = []any{
	"id", "occurred_at", "caller_email", "caller_role", "action", "resource",
	"patient_id", "method", "path", "status", "remote_ip", "request_id",
}

func insertSQL(e *Event) (string, []any, error) {
	return dialect.Insert(table).Rows(goqu.Record{
		"id":           e.ID,
		"occurred_at":  e.OccurredAt,
		"caller_email": e.CallerEmail,
		"caller_role":  e.CallerRole,
		"action":       e.Action,
		"resource":     e.Resource,
		"patient_id":   e.PatientID,
		"method":       e.Method,
		"path":         e.Path,
		"status":       e.Status,
		"remote_ip":    e.RemoteIP,
		"request_id":   e.RequestID,
	}).Prepared(true).ToSQL()
}

func (f Filter) where() []exp.Expression {
	var out []exp.Expression
	if f.PatientID != "" {
		out = append(out, goqu.C("patient_id").Eq(f.PatientID))
	}
	if f.CallerEmail != "" {
		out = append(out, goqu.C("caller_email").Eq(f.CallerEmail))
	}
	if f.Action != "" {
		out = append(out, goqu.C("action").Eq(f.Action))
	}
	return out
}

func countSQL(f Filter) (string, []any, error) {
	return dialect.From(table).
		Select(goqu.COUNT(goqu.Star())).
		Where(f.where()...).
		Prepared(true).
		ToSQL()
}

func listSQL(f Filter, w pagination.Window) (string, []any, error) {
	return dialect.From(table).
		Select(eventColumns...).
		Where(f.where()...).
		Order(goqu.C("occurred_at").Desc(), goqu.C("id").Desc()).
		Limit(uint(w.Limit)).
		Offset(uint(w.Offset)).
		Prepared(true).
		ToSQL()
}
