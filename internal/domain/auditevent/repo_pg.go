package auditevent

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepanel/carepanel/internal/platform/db"
	"github.com/carepanel/carepanel/pkg/pagination"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

// Insert always goes through the pool: events are written after the
// request's own connection has been handed back.
func (r *repoPG) Insert(ctx context.Context, e *Event) error {
	sql, args, err := insertSQL(e)
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, w pagination.Window) ([]*Event, int, error) {
	q := db.Executor(ctx, r.pool)

	sql, args, err := countSQL(f)
	if err != nil {
		return nil, 0, fmt.Errorf("build audit count: %w", err)
	}
	var total int
	if err := q.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit events: %w", err)
	}

	sql, args, err = listSQL(f, w)
	if err != nil {
		return nil, 0, fmt.Errorf("build audit list: %w", err)
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var items []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit event: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit events: %w", err)
	}
	return items, total, nil
}

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(
		&e.ID, &e.OccurredAt, &e.CallerEmail, &e.CallerRole, &e.Action, &e.Resource,
		&e.PatientID, &e.Method, &e.Path, &e.Status, &e.RemoteIP, &e.RequestID,
	)
	return &e, err
}
