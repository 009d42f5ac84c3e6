package auditevent

import (
	"context"

	"github.com/carepanel/carepanel/pkg/pagination"
)

type Repository interface {
	Insert(ctx context.Context, e *Event) error
	// List returns one window of events, newest first, with the total
	// matching count.
	List(ctx context.Context, f Filter, w pagination.Window) ([]*Event, int, error)
}
