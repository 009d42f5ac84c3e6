// Package sandbox produces reproducible synthetic patients for demo and
// development databases.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/carepanel/carepanel/internal/domain/patient"
	"github.com/carepanel/carepanel/pkg/apperrors"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// SeedConfig controls the volume and shape of generated data.
type SeedConfig struct {
	PatientCount          int   `json:"patientCount"`
	MaxAllergies          int   `json:"maxAllergies"`
	MaxConditions         int   `json:"maxConditions"`
	MaxMedications        int   `json:"maxMedications"`
	MaxDocuments          int   `json:"maxDocuments"`
	Seed                  int64 `json:"seed"`
	ContinueOnConstraints bool  `json:"continueOnConstraints"`
}

// DefaultSeedConfig mirrors the volume the demo dashboard expects.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		PatientCount:          1500,
		MaxAllergies:          3,
		MaxConditions:         3,
		MaxMedications:        3,
		MaxDocuments:          5,
		ContinueOnConstraints: true,
	}
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	Patients    int           `json:"patients"`
	Skipped     int           `json:"skipped"`
	Medications int           `json:"medications"`
	Documents   int           `json:"documents"`
	Duration    time.Duration `json:"duration"`
}

// ---------------------------------------------------------------------------
// Pools
// ---------------------------------------------------------------------------

type medicationDef struct {
	Name      string
	Dosage    string
	Frequency string
}

var (
	firstNames = []string{
		"James", "Robert", "John", "Michael", "David", "William", "Richard",
		"Joseph", "Thomas", "Christopher", "Charles", "Daniel", "Matthew",
		"Anthony", "Mark", "Steven", "Paul", "Andrew", "Joshua", "Kevin",
		"Mary", "Patricia", "Jennifer", "Linda", "Barbara", "Elizabeth",
		"Susan", "Jessica", "Sarah", "Karen", "Lisa", "Nancy", "Margaret",
		"Sandra", "Ashley", "Emily", "Michelle", "Amanda", "Melissa",
		"Rebecca", "Laura", "Angela", "Anna", "Emma", "Nicole", "Rachel",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia",
		"Miller", "Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez",
		"Gonzalez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore",
		"Jackson", "Martin", "Lee", "Perez", "Thompson", "White", "Harris",
		"Sanchez", "Clark", "Ramirez", "Lewis", "Robinson", "Walker",
		"Young", "Allen", "King", "Wright", "Scott", "Torres", "Nguyen",
		"Hill", "Flores", "Green", "Adams", "Nelson", "Baker", "Hall",
	}

	streets = []string{
		"Main St", "Oak Ave", "Elm St", "Pine Rd", "Maple Dr", "Cedar Ln",
		"Birch Blvd", "Walnut Way", "Cherry Ct", "Spruce Pl", "Willow Rd",
	}

	// cities pairs each city with its state and a representative zip.
	cities = []struct{ City, State, Zip string }{
		{"New York", "NY", "10001"},
		{"Los Angeles", "CA", "90001"},
		{"Chicago", "IL", "60601"},
		{"Houston", "TX", "77001"},
		{"Phoenix", "AZ", "85001"},
		{"Philadelphia", "PA", "19101"},
		{"San Antonio", "TX", "78201"},
		{"San Diego", "CA", "92101"},
		{"Dallas", "TX", "75201"},
		{"Boston", "MA", "02101"},
		{"Austin", "TX", "73301"},
		{"Jacksonville", "FL", "32201"},
		{"Columbus", "OH", "43201"},
		{"Charlotte", "NC", "28201"},
		{"Denver", "CO", "80201"},
		{"Seattle", "WA", "98101"},
	}

	allergiesPool = []string{
		"Peanuts", "Shellfish", "Dairy", "Eggs", "Soy", "Wheat", "Tree Nuts",
		"Fish", "Penicillin", "Latex", "Pollen", "Dust Mites", "Mold", "Pet Dander",
	}
	conditionsPool = []string{
		"Hypertension", "Type 2 Diabetes", "Asthma", "Arthritis", "High Cholesterol",
		"Anxiety", "Depression", "Migraine", "GERD", "Osteoporosis", "Sleep Apnea",
		"COPD", "Heart Disease", "Kidney Disease", "Liver Disease", "Thyroid Disorder",
	}
	medicationsPool = []medicationDef{
		{"Lisinopril", "10mg", "Once daily"},
		{"Metformin", "500mg", "Twice daily"},
		{"Atorvastatin", "20mg", "Once daily"},
		{"Amlodipine", "5mg", "Once daily"},
		{"Omeprazole", "20mg", "Once daily"},
		{"Metoprolol", "25mg", "Twice daily"},
		{"Losartan", "50mg", "Once daily"},
		{"Albuterol", "90mcg", "As needed"},
		{"Levothyroxine", "75mcg", "Once daily"},
		{"Gabapentin", "300mg", "Three times daily"},
		{"Sertraline", "50mg", "Once daily"},
		{"Ibuprofen", "200mg", "As needed"},
		{"Acetaminophen", "500mg", "As needed"},
	}
	insuranceProviders = []string{
		"Blue Cross Blue Shield", "Aetna", "UnitedHealthcare", "Cigna",
		"Humana", "Kaiser Permanente", "Medicaid", "Medicare",
	}
	relationships = []string{
		"Spouse", "Parent", "Child", "Sibling", "Friend", "Partner", "Other",
	}
	documentWords = []string{
		"Annual", "Followup", "Intake", "Referral", "Lab", "Imaging", "Renewal", "Scan",
	}
	mimeTypes = []string{
		"application/pdf", "image/jpeg", "image/png", "application/msword",
	}
	copays      = []float64{10, 15, 20, 25, 30, 50}
	deductibles = []float64{500, 1000, 1500, 2000, 2500, 5000}
)

// ---------------------------------------------------------------------------
// DataGenerator
// ---------------------------------------------------------------------------

// GeneratedPatient is one synthetic patient plus the documents to attach
// once it exists.
type GeneratedPatient struct {
	Request   *patient.CreatePatientRequest
	Documents []patient.DocumentInput
}

// DataGenerator produces deterministic synthetic patients. The same seed
// and reference date always yield the same sequence.
type DataGenerator struct {
	rng     *rand.Rand
	today   time.Time
	cfg     SeedConfig
	counter int
}

// NewDataGenerator returns a generator seeded for reproducibility. If seed
// is 0 a time-based seed is chosen. Relative dates are computed from today.
func NewDataGenerator(seed int64, today time.Time, cfg SeedConfig) *DataGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	y, m, d := today.UTC().Date()
	return &DataGenerator{
		rng:   rand.New(rand.NewSource(seed)),
		today: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		cfg:   cfg,
	}
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// sample returns up to n distinct entries from pool.
func (g *DataGenerator) sample(pool []string, n int) []string {
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]string, 0, n)
	for _, i := range g.rng.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return out
}

func (g *DataGenerator) chance(p float64) bool {
	return g.rng.Float64() < p
}

// daysAgo returns a date between lo and hi days before today.
func (g *DataGenerator) daysAgo(lo, hi int) string {
	return g.today.AddDate(0, 0, -(lo + g.rng.Intn(hi-lo+1))).Format(patient.DateLayout)
}

func (g *DataGenerator) daysAhead(lo, hi int) string {
	return g.today.AddDate(0, 0, lo+g.rng.Intn(hi-lo+1)).Format(patient.DateLayout)
}

func (g *DataGenerator) phone() string {
	return fmt.Sprintf("(%03d) %03d-%04d", 200+g.rng.Intn(800), 200+g.rng.Intn(800), g.rng.Intn(10000))
}

// status draws active, inactive or critical at roughly 75/20/5.
func (g *DataGenerator) status() string {
	switch n := g.rng.Intn(100); {
	case n < 75:
		return string(patient.StatusActive)
	case n < 95:
		return string(patient.StatusInactive)
	default:
		return string(patient.StatusCritical)
	}
}

// GeneratePatient produces the next synthetic patient.
func (g *DataGenerator) GeneratePatient() GeneratedPatient {
	g.counter++
	first := g.pick(firstNames)
	last := g.pick(lastNames)
	city := cities[g.rng.Intn(len(cities))]

	req := &patient.CreatePatientRequest{
		FirstName: first,
		LastName:  last,
		// Adults between 18 and 90.
		DateOfBirth: g.daysAgo(18*365+5, 90*365),
		Email:       fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), g.counter),
		Phone:       g.phone(),
		Address: patient.AddressInput{
			Street:  fmt.Sprintf("%d %s", 100+g.rng.Intn(9900), g.pick(streets)),
			City:    city.City,
			State:   city.State,
			ZipCode: city.Zip,
			Country: "USA",
		},
		EmergencyContact: patient.EmergencyContactInput{
			Name:         g.pick(firstNames) + " " + g.pick(lastNames),
			Relationship: g.pick(relationships),
			Phone:        g.phone(),
		},
		Allergies:  g.sample(allergiesPool, g.rng.Intn(g.cfg.MaxAllergies+1)),
		Conditions: g.sample(conditionsPool, g.rng.Intn(g.cfg.MaxConditions+1)),
		Status:     g.status(),
	}
	if g.chance(0.7) {
		email := fmt.Sprintf("contact%d@example.com", g.counter)
		req.EmergencyContact.Email = &email
	}
	if g.chance(0.9) {
		bt := g.pick(patient.BloodTypes)
		req.BloodType = &bt
	}
	if g.chance(0.95) {
		lv := g.daysAgo(0, 730)
		req.LastVisit = &lv
	}

	req.Insurance = g.insurance()
	req.Medications = g.medications()

	return GeneratedPatient{Request: req, Documents: g.documents()}
}

func (g *DataGenerator) insurance() patient.InsuranceInput {
	provider := g.pick(insuranceProviders)
	copay := copays[g.rng.Intn(len(copays))]
	deductible := deductibles[g.rng.Intn(len(deductibles))]
	in := patient.InsuranceInput{
		Provider:      provider,
		PolicyNumber:  fmt.Sprintf("%s%09d", strings.ToUpper(provider[:3]), 100000000+g.rng.Intn(900000000)),
		EffectiveDate: g.daysAgo(0, 730),
		Copay:         &copay,
		Deductible:    &deductible,
	}
	if g.chance(0.8) {
		grp := fmt.Sprintf("GRP%d", 100+g.rng.Intn(900))
		in.GroupNumber = &grp
	}
	if g.chance(0.9) {
		exp := g.daysAhead(1, 365)
		in.ExpirationDate = &exp
	}
	return in
}

func (g *DataGenerator) medications() []patient.MedicationInput {
	n := g.rng.Intn(g.cfg.MaxMedications + 1)
	if n > len(medicationsPool) {
		n = len(medicationsPool)
	}
	out := make([]patient.MedicationInput, 0, n)
	for _, i := range g.rng.Perm(len(medicationsPool))[:n] {
		def := medicationsPool[i]
		mi := patient.MedicationInput{
			Name:         def.Name,
			Dosage:       def.Dosage,
			Frequency:    def.Frequency,
			PrescribedBy: "Dr. " + g.pick(lastNames),
			StartDate:    g.daysAgo(0, 365),
		}
		if g.chance(0.3) {
			end := g.daysAhead(1, 365)
			mi.EndDate = &end
		}
		out = append(out, mi)
	}
	return out
}

func (g *DataGenerator) documents() []patient.DocumentInput {
	n := g.rng.Intn(g.cfg.MaxDocuments + 1)
	out := make([]patient.DocumentInput, 0, n)
	for i := 0; i < n; i++ {
		docType := g.pick(patient.DocumentTypes)
		mime := g.pick(mimeTypes)
		ext := mime[strings.LastIndex(mime, "/")+1:]
		out = append(out, patient.DocumentInput{
			Type:       docType,
			Name:       fmt.Sprintf("%s - %s", titleCase(docType), g.pick(documentWords)),
			UploadDate: g.daysAgo(0, 730),
			FileSize:   int64(50000 + g.rng.Intn(4950001)),
			MimeType:   mime,
			URL:        fmt.Sprintf("/documents/%d/%08x.%s", g.counter, g.rng.Uint32(), ext),
		})
	}
	return out
}

// titleCase turns "photo_id" into "Photo Id".
func titleCase(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ---------------------------------------------------------------------------
// Seeder
// ---------------------------------------------------------------------------

// PatientWriter is the subset of the patient service the seeder drives.
type PatientWriter interface {
	CreatePatient(ctx context.Context, req *patient.CreatePatientRequest) (*patient.PatientResponse, error)
	AttachDocuments(ctx context.Context, id string, in []patient.DocumentInput) (*patient.PatientResponse, error)
}

// Seeder inserts generated patients through the patient service so every
// row passes the same validation and uniqueness checks as API writes.
type Seeder struct {
	config SeedConfig
	writer PatientWriter
	logger zerolog.Logger
	now    func() time.Time
}

func NewSeeder(config SeedConfig, writer PatientWriter, logger zerolog.Logger) *Seeder {
	return &Seeder{config: config, writer: writer, logger: logger, now: time.Now}
}

// Run generates and stores config.PatientCount patients. Email collisions
// with existing rows are skipped when ContinueOnConstraints is set.
func (s *Seeder) Run(ctx context.Context) (*SeedResult, error) {
	start := s.now()
	gen := NewDataGenerator(s.config.Seed, start, s.config)
	result := &SeedResult{}

	for i := 0; i < s.config.PatientCount; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		gp := gen.GeneratePatient()

		created, err := s.writer.CreatePatient(ctx, gp.Request)
		if err != nil {
			if s.config.ContinueOnConstraints && isConflict(err) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("seed patient %d: %w", i+1, err)
		}
		result.Patients++
		result.Medications += len(created.MedicalInfo.CurrentMedications)

		if len(gp.Documents) > 0 {
			if _, err := s.writer.AttachDocuments(ctx, created.ID, gp.Documents); err != nil {
				return result, fmt.Errorf("attach documents to %s: %w", created.ID, err)
			}
			result.Documents += len(gp.Documents)
		}

		if (i+1)%100 == 0 {
			s.logger.Info().Int("generated", i+1).Int("total", s.config.PatientCount).Msg("seeding patients")
		}
	}

	result.Duration = s.now().Sub(start)
	s.logger.Info().
		Int("patients", result.Patients).
		Int("skipped", result.Skipped).
		Int("documents", result.Documents).
		Dur("duration", result.Duration).
		Msg("seed complete")
	return result, nil
}

func isConflict(err error) bool {
	return apperrors.Is(err, apperrors.ErrorTypeConflict)
}
