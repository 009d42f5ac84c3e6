package patient

import (
	"time"
)

// Status is caller-set patient state. No transitions are enforced.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusCritical Status = "critical"
)

var validStatuses = map[string]bool{
	string(StatusActive): true, string(StatusInactive): true, string(StatusCritical): true,
}

// BloodTypes lists the accepted blood type values.
var BloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var validBloodTypes = func() map[string]bool {
	m := make(map[string]bool, len(BloodTypes))
	for _, bt := range BloodTypes {
		m[bt] = true
	}
	return m
}()

// DocumentTypes lists the accepted document type values.
var DocumentTypes = []string{"medical_record", "insurance_card", "photo_id", "test_result", "other"}

var validDocumentTypes = func() map[string]bool {
	m := make(map[string]bool, len(DocumentTypes))
	for _, dt := range DocumentTypes {
		m[dt] = true
	}
	return m
}()

func IsValidStatus(s string) bool       { return validStatuses[s] }
func IsValidBloodType(s string) bool    { return validBloodTypes[s] }
func IsValidDocumentType(s string) bool { return validDocumentTypes[s] }

// Patient maps to the patients table plus its owned rows.
type Patient struct {
	ID          string    `db:"id"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	DateOfBirth time.Time `db:"date_of_birth"`
	Email       string    `db:"email"`
	Phone       string    `db:"phone"`

	AddressStreet  string `db:"address_street"`
	AddressCity    string `db:"address_city"`
	AddressState   string `db:"address_state"`
	AddressZipCode string `db:"address_zip_code"`
	AddressCountry string `db:"address_country"`

	EmergencyContactName         string  `db:"emergency_contact_name"`
	EmergencyContactRelationship string  `db:"emergency_contact_relationship"`
	EmergencyContactPhone        string  `db:"emergency_contact_phone"`
	EmergencyContactEmail        *string `db:"emergency_contact_email"`

	Allergies  []string   `db:"allergies"`
	Conditions []string   `db:"conditions"`
	BloodType  *string    `db:"blood_type"`
	LastVisit  *time.Time `db:"last_visit"`
	Status     string     `db:"status"`

	InsuranceProvider       string     `db:"insurance_provider"`
	InsurancePolicyNumber   string     `db:"insurance_policy_number"`
	InsuranceGroupNumber    *string    `db:"insurance_group_number"`
	InsuranceEffectiveDate  time.Time  `db:"insurance_effective_date"`
	InsuranceExpirationDate *time.Time `db:"insurance_expiration_date"`
	InsuranceCopay          float64    `db:"insurance_copay"`
	InsuranceDeductible     float64    `db:"insurance_deductible"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Medications []*Medication `db:"-"`
	Documents   []*Document   `db:"-"`
}

// ActiveMedications returns the medications still in effect.
func (p *Patient) ActiveMedications() []*Medication {
	var out []*Medication
	for _, m := range p.Medications {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out
}

// Medication maps to the medications table.
type Medication struct {
	ID           string     `db:"id"`
	PatientID    string     `db:"patient_id"`
	Name         string     `db:"name"`
	Dosage       string     `db:"dosage"`
	Frequency    string     `db:"frequency"`
	PrescribedBy string     `db:"prescribed_by"`
	StartDate    time.Time  `db:"start_date"`
	EndDate      *time.Time `db:"end_date"`
	IsActive     bool       `db:"is_active"`
}

// Document maps to the documents table.
type Document struct {
	ID         string    `db:"id"`
	PatientID  string    `db:"patient_id"`
	Type       string    `db:"type"`
	Name       string    `db:"name"`
	UploadDate time.Time `db:"upload_date"`
	FileSize   int64     `db:"file_size"`
	MimeType   string    `db:"mime_type"`
	URL        string    `db:"url"`
}

// Summary is the list-view projection of a patient.
type Summary struct {
	ID                string     `db:"id"`
	FirstName         string     `db:"first_name"`
	LastName          string     `db:"last_name"`
	DateOfBirth       time.Time  `db:"date_of_birth"`
	Email             string     `db:"email"`
	Phone             string     `db:"phone"`
	Status            string     `db:"status"`
	LastVisit         *time.Time `db:"last_visit"`
	BloodType         *string    `db:"blood_type"`
	InsuranceProvider string     `db:"insurance_provider"`
}
