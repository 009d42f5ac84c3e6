package patient

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when no patient has the id.
var ErrNotFound = errors.New("patient not found")

type Repository interface {
	// Create inserts the patient row and its medications.
	Create(ctx context.Context, p *Patient) error
	// GetByID loads the patient with all medications and documents.
	GetByID(ctx context.Context, id string) (*Patient, error)
	// GetForUpdate loads the bare patient row and locks it until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*Patient, error)
	// EmailTaken reports whether a patient other than excludeID owns email.
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	// Update applies column changes and bumps updated_at.
	Update(ctx context.Context, id string, ch Changes, now time.Time) error
	// ReplaceMedications deletes every medication of the patient and inserts meds.
	ReplaceMedications(ctx context.Context, id string, meds []*Medication) error
	AddDocuments(ctx context.Context, docs []*Document) error
	// List returns one page of summaries and the total match count.
	List(ctx context.Context, q ListQuery, today time.Time) ([]*Summary, int, error)
}
