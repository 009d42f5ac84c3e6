package auditevent

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/carepanel/carepanel/pkg/pagination"
)

type memRepo struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (r *memRepo) Insert(_ context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *e
	r.events = append(r.events, &cp)
	return nil
}

func (r *memRepo) List(_ context.Context, f Filter, w pagination.Window) ([]*Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}

	var matched []*Event
	for _, e := range r.events {
		if f.PatientID != "" && (e.PatientID == nil || *e.PatientID != f.PatientID) {
			continue
		}
		if f.CallerEmail != "" && e.CallerEmail != f.CallerEmail {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	total := len(matched)
	if w.Offset >= total {
		return nil, total, nil
	}
	end := w.Offset + w.Limit
	if end > total {
		end = total
	}
	return matched[w.Offset:end], total, nil
}

var errStorage = errors.New("storage unavailable")
