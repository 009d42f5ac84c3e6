package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carepanel/carepanel/internal/platform/db"
	"github.com/carepanel/carepanel/pkg/apperrors"
	"github.com/carepanel/carepanel/pkg/pagination"
)

const (
	emailConstraint = "unique_patient_email"

	msgNotFound          = "Patient not found"
	msgEmailTaken        = "Patient with email '%s' already exists"
	msgStaleWrite        = "Patient was modified by another user. Please refresh and try again."
	msgCreateConstraint  = "Failed to create patient due to database constraint violation"
	msgUpdateConstraint  = "Failed to update patient due to database constraint violation"
	msgMedicationsNeeded = "medications is required"
)

// TxRunner runs fn as one atomic unit.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo  Repository
	tx    TxRunner
	cache Cache
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

// WithClock replaces the wall clock used for timestamps and last-visit
// buckets.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo Repository, tx TxRunner, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		tx:    tx,
		cache: NopCache(),
		log:   zerolog.Nop(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// -- Reads --

func (s *Service) GetPatient(ctx context.Context, id string) (*PatientResponse, error) {
	cached, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("patient_id", id).Msg("patient cache read failed")
	} else if ok {
		return cached, nil
	}

	// Taken before the load so a mutation committing during it voids the fill.
	gen, genErr := s.cache.Generation(ctx, id)

	resp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		s.log.Warn().Err(genErr).Str("patient_id", id).Msg("patient cache generation read failed")
		return resp, nil
	}
	if err := s.cache.Set(ctx, resp, gen); err != nil {
		s.log.Warn().Err(err).Str("patient_id", id).Msg("patient cache write failed")
	}
	return resp, nil
}

func (s *Service) load(ctx context.Context, id string) (*PatientResponse, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.NewNotFoundError(msgNotFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load patient", err)
	}
	resp := p.ToResponse()
	return &resp, nil
}

func (s *Service) ListPatients(ctx context.Context, q ListQuery) (*pagination.Page[SummaryResponse], error) {
	rows, total, err := s.repo.List(ctx, q, today(s.now()))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	items := make([]SummaryResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.ToResponse())
	}
	return pagination.NewPage(items, total, q.Page), nil
}

// -- Writes --

func (s *Service) CreatePatient(ctx context.Context, req *CreatePatientRequest) (*PatientResponse, error) {
	p, err := req.toPatient(s.newID(), s.now().UTC())
	if err != nil {
		return nil, err
	}
	if p.Medications, err = newMedications(p.ID, req.Medications, s.newID); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.checkEmail(ctx, p.Email, ""); err != nil {
			return err
		}
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return nil, writeError(err, p.Email, msgCreateConstraint)
	}

	s.log.Info().Str("patient_id", p.ID).Msg("patient created")
	return s.load(ctx, p.ID)
}

func (s *Service) UpdatePersonalInfo(ctx context.Context, id string, u *PersonalInfoUpdate) (*PatientResponse, error) {
	ch, err := u.changes()
	if err != nil {
		return nil, err
	}
	email, _ := ch["email"].(string)

	return s.mutate(ctx, id, email, func(ctx context.Context, cur *Patient) error {
		if since, ok := u.unmodifiedSince(); ok && cur.UpdatedAt.After(since) {
			return apperrors.NewConflictError(msgStaleWrite)
		}
		if email != "" && email != cur.Email {
			if err := s.checkEmail(ctx, email, id); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, id, ch, s.now())
	})
}

func (s *Service) UpdateEmergencyContact(ctx context.Context, id string, u *EmergencyContactUpdate) (*PatientResponse, error) {
	ch, err := u.changes()
	if err != nil {
		return nil, err
	}
	return s.applyChanges(ctx, id, ch)
}

func (s *Service) UpdateInsurance(ctx context.Context, id string, u *InsuranceUpdate) (*PatientResponse, error) {
	ch, err := u.changes()
	if err != nil {
		return nil, err
	}
	return s.applyChanges(ctx, id, ch)
}

func (s *Service) UpdateMedicalInfo(ctx context.Context, id string, u *MedicalInfoUpdate) (*PatientResponse, error) {
	ch, err := u.changes()
	if err != nil {
		return nil, err
	}
	return s.applyChanges(ctx, id, ch)
}

// ReplaceMedications swaps the whole medication list for the given one.
// Medications missing from the payload are deleted.
func (s *Service) ReplaceMedications(ctx context.Context, id string, req *MedicationsReplace) (*PatientResponse, error) {
	if req.Medications == nil {
		return nil, apperrors.NewValidationError(msgMedicationsNeeded)
	}
	meds, err := newMedications(id, req.Medications, s.newID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, "", func(ctx context.Context, _ *Patient) error {
		if err := s.repo.ReplaceMedications(ctx, id, meds); err != nil {
			return err
		}
		return s.repo.Update(ctx, id, Changes{}, s.now())
	})
}

// AttachDocuments records stored files against the patient.
func (s *Service) AttachDocuments(ctx context.Context, id string, in []DocumentInput) (*PatientResponse, error) {
	docs, err := newDocuments(id, in, s.newID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, "", func(ctx context.Context, _ *Patient) error {
		if err := s.repo.AddDocuments(ctx, docs); err != nil {
			return err
		}
		return s.repo.Update(ctx, id, Changes{}, s.now())
	})
}

func (s *Service) applyChanges(ctx context.Context, id string, ch Changes) (*PatientResponse, error) {
	return s.mutate(ctx, id, "", func(ctx context.Context, _ *Patient) error {
		return s.repo.Update(ctx, id, ch, s.now())
	})
}

// mutate locks the patient row and runs fn in one transaction, then drops
// the cached copy and returns the committed state. email names the address
// being written, for conflict messages.
func (s *Service) mutate(ctx context.Context, id, email string, fn func(ctx context.Context, cur *Patient) error) (*PatientResponse, error) {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, cur)
	})
	if err != nil {
		return nil, writeError(err, email, msgUpdateConstraint)
	}

	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("patient_id", id).Msg("patient cache invalidation failed")
	}
	return s.load(ctx, id)
}

func (s *Service) checkEmail(ctx context.Context, email, excludeID string) error {
	taken, err := s.repo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewConflictErrorf(nil, msgEmailTaken, email)
	}
	return nil
}

// writeError translates storage failures from a write into the error
// taxonomy. Application errors pass through unchanged.
func writeError(err error, email, constraintMsg string) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return apperrors.NewNotFoundError(msgNotFound)
	case db.IsUniqueViolation(err, emailConstraint):
		return apperrors.NewConflictErrorf(err, msgEmailTaken, email)
	case db.IsIntegrityViolation(err):
		return apperrors.NewConstraintError(constraintMsg, err)
	default:
		return apperrors.NewInternalError("failed to save patient", err)
	}
}
