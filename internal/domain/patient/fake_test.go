package patient

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// -- In-memory repository --

type memRepo struct {
	patients map[string]*Patient
	meds     map[string][]*Medication
	docs     map[string][]*Document

	// hideEmails makes EmailTaken report false so the storage-level
	// uniqueness check is what catches the duplicate.
	hideEmails bool
	// failUpdate, when set, is returned by Update after it has applied.
	failUpdate error
	locks      int
	// afterGet runs once inside GetByID, after the row has been copied.
	afterGet func()
}

func newMemRepo() *memRepo {
	return &memRepo{
		patients: make(map[string]*Patient),
		meds:     make(map[string][]*Medication),
		docs:     make(map[string][]*Document),
	}
}

func (m *memRepo) Create(_ context.Context, p *Patient) error {
	for _, other := range m.patients {
		if other.Email == p.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: emailConstraint}
		}
	}
	cp := *p
	cp.Medications, cp.Documents = nil, nil
	m.patients[p.ID] = &cp
	m.meds[p.ID] = append([]*Medication(nil), p.Medications...)
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	cp.Medications = append([]*Medication(nil), m.meds[id]...)
	cp.Documents = append([]*Document(nil), m.docs[id]...)
	if hook := m.afterGet; hook != nil {
		m.afterGet = nil
		hook()
	}
	return &cp, nil
}

func (m *memRepo) GetForUpdate(_ context.Context, id string) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.locks++
	cp := *p
	return &cp, nil
}

func (m *memRepo) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	if m.hideEmails {
		return false, nil
	}
	for id, p := range m.patients {
		if p.Email == email && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Update(_ context.Context, id string, ch Changes, now time.Time) error {
	p, ok := m.patients[id]
	if !ok {
		return ErrNotFound
	}
	if email, ok := ch["email"].(string); ok {
		for otherID, other := range m.patients {
			if otherID != id && other.Email == email {
				return &pgconn.PgError{Code: "23505", ConstraintName: emailConstraint}
			}
		}
	}
	for col, v := range ch {
		applyColumn(p, col, v)
	}
	if now.After(p.UpdatedAt) {
		p.UpdatedAt = now
	}
	return m.failUpdate
}

func (m *memRepo) ReplaceMedications(_ context.Context, id string, meds []*Medication) error {
	m.meds[id] = append([]*Medication(nil), meds...)
	return nil
}

func (m *memRepo) AddDocuments(_ context.Context, docs []*Document) error {
	for _, d := range docs {
		m.docs[d.PatientID] = append(m.docs[d.PatientID], d)
	}
	return nil
}

func (m *memRepo) List(_ context.Context, q ListQuery, _ time.Time) ([]*Summary, int, error) {
	var all []*Summary
	for _, p := range m.patients {
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		all = append(all, &Summary{
			ID: p.ID, FirstName: p.FirstName, LastName: p.LastName, DateOfBirth: p.DateOfBirth,
			Email: p.Email, Phone: p.Phone, Status: p.Status, LastVisit: p.LastVisit,
			BloodType: p.BloodType, InsuranceProvider: p.InsuranceProvider,
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if q.SortDesc {
			return all[i].LastName > all[j].LastName
		}
		return all[i].LastName < all[j].LastName
	})
	total := len(all)
	start := q.Page.Offset()
	if start > total {
		start = total
	}
	end := start + q.Page.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *memRepo) snapshot() *memRepo {
	cp := newMemRepo()
	for id, p := range m.patients {
		pc := *p
		cp.patients[id] = &pc
	}
	for id, ms := range m.meds {
		cp.meds[id] = append([]*Medication(nil), ms...)
	}
	for id, ds := range m.docs {
		cp.docs[id] = append([]*Document(nil), ds...)
	}
	return cp
}

func (m *memRepo) restore(from *memRepo) {
	m.patients, m.meds, m.docs = from.patients, from.meds, from.docs
}

func strPtr(v any) *string {
	if v == nil {
		return nil
	}
	s := v.(string)
	return &s
}

func timePtr(v any) *time.Time {
	if v == nil {
		return nil
	}
	t := v.(time.Time)
	return &t
}

func applyColumn(p *Patient, col string, v any) {
	switch col {
	case "first_name":
		p.FirstName = v.(string)
	case "last_name":
		p.LastName = v.(string)
	case "date_of_birth":
		p.DateOfBirth = v.(time.Time)
	case "email":
		p.Email = v.(string)
	case "phone":
		p.Phone = v.(string)
	case "blood_type":
		p.BloodType = strPtr(v)
	case "address_street":
		p.AddressStreet = v.(string)
	case "address_city":
		p.AddressCity = v.(string)
	case "address_state":
		p.AddressState = v.(string)
	case "address_zip_code":
		p.AddressZipCode = v.(string)
	case "address_country":
		p.AddressCountry = v.(string)
	case "emergency_contact_name":
		p.EmergencyContactName = v.(string)
	case "emergency_contact_relationship":
		p.EmergencyContactRelationship = v.(string)
	case "emergency_contact_phone":
		p.EmergencyContactPhone = v.(string)
	case "emergency_contact_email":
		p.EmergencyContactEmail = strPtr(v)
	case "allergies":
		p.Allergies = v.([]string)
	case "conditions":
		p.Conditions = v.([]string)
	case "last_visit":
		p.LastVisit = timePtr(v)
	case "status":
		p.Status = v.(string)
	case "insurance_provider":
		p.InsuranceProvider = v.(string)
	case "insurance_policy_number":
		p.InsurancePolicyNumber = v.(string)
	case "insurance_group_number":
		p.InsuranceGroupNumber = strPtr(v)
	case "insurance_effective_date":
		p.InsuranceEffectiveDate = v.(time.Time)
	case "insurance_expiration_date":
		p.InsuranceExpirationDate = timePtr(v)
	case "insurance_copay":
		p.InsuranceCopay = v.(float64)
	case "insurance_deductible":
		p.InsuranceDeductible = v.(float64)
	}
}

// memTx emulates a transaction over memRepo: state is restored when fn
// fails.
type memTx struct {
	repo *memRepo
	runs int
}

func (t *memTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.runs++
	saved := t.repo.snapshot()
	if err := fn(ctx); err != nil {
		t.repo.restore(saved)
		return err
	}
	return nil
}

// -- In-memory cache --

type memCache struct {
	entries     map[string]*PatientResponse
	generations map[string]int64
	invalidated []string
	failGet     error
}

func newMemCache() *memCache {
	return &memCache{
		entries:     make(map[string]*PatientResponse),
		generations: make(map[string]int64),
	}
}

func (c *memCache) Get(_ context.Context, id string) (*PatientResponse, bool, error) {
	if c.failGet != nil {
		return nil, false, c.failGet
	}
	p, ok := c.entries[id]
	return p, ok, nil
}

func (c *memCache) Generation(_ context.Context, id string) (int64, error) {
	return c.generations[id], nil
}

func (c *memCache) Set(_ context.Context, p *PatientResponse, gen int64) error {
	if c.generations[p.ID] != gen {
		return nil
	}
	c.entries[p.ID] = p
	return nil
}

func (c *memCache) Invalidate(_ context.Context, id string) error {
	delete(c.entries, id)
	c.generations[id]++
	c.invalidated = append(c.invalidated, id)
	return nil
}

// -- Fixtures --

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService() (*Service, *memRepo, *memCache, *testClock) {
	repo := newMemRepo()
	cache := newMemCache()
	clock := &testClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(repo, &memTx{repo: repo}, WithCache(cache), WithClock(clock.now))
	return svc, repo, cache, clock
}

func float(v float64) *float64 { return &v }

func validCreateRequest(email string) *CreatePatientRequest {
	return &CreatePatientRequest{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DateOfBirth: "1985-12-10",
		Email:       email,
		Phone:       "555-0100",
		Address: AddressInput{
			Street: "1 Main St", City: "Boston", State: "MA", ZipCode: "02101",
		},
		EmergencyContact: EmergencyContactInput{
			Name: "Charles Babbage", Relationship: "Friend", Phone: "555-0101",
		},
		Insurance: InsuranceInput{
			Provider: "Aetna", PolicyNumber: "POL-1", EffectiveDate: "2024-01-01",
			Copay: float(25), Deductible: float(1000),
		},
		Allergies:  []string{"Penicillin"},
		Conditions: []string{"Hypertension"},
		Medications: []MedicationInput{{
			Name: "Lisinopril", Dosage: "10mg", Frequency: "Once daily",
			PrescribedBy: "Dr. Smith", StartDate: "2024-01-15",
		}},
	}
}
