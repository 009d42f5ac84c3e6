package patient

// -- Responses --

type AddressResponse struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type EmergencyContactResponse struct {
	Name         string  `json:"name"`
	Relationship string  `json:"relationship"`
	Phone        string  `json:"phone"`
	Email        *string `json:"email"`
}

type MedicationResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Dosage       string  `json:"dosage"`
	Frequency    string  `json:"frequency"`
	PrescribedBy string  `json:"prescribedBy"`
	StartDate    string  `json:"startDate"`
	EndDate      *string `json:"endDate"`
	IsActive     bool    `json:"isActive"`
}

type MedicalInfoResponse struct {
	Allergies          []string             `json:"allergies"`
	CurrentMedications []MedicationResponse `json:"currentMedications"`
	Conditions         []string             `json:"conditions"`
	BloodType          *string              `json:"bloodType"`
	LastVisit          *string              `json:"lastVisit"`
	Status             string               `json:"status"`
}

type InsuranceResponse struct {
	Provider       string  `json:"provider"`
	PolicyNumber   string  `json:"policyNumber"`
	GroupNumber    *string `json:"groupNumber"`
	EffectiveDate  string  `json:"effectiveDate"`
	ExpirationDate *string `json:"expirationDate"`
	Copay          float64 `json:"copay"`
	Deductible     float64 `json:"deductible"`
}

type DocumentResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	UploadDate string `json:"uploadDate"`
	FileSize   int64  `json:"fileSize"`
	MimeType   string `json:"mimeType"`
	URL        string `json:"url"`
}

// PatientResponse is the full nested patient representation.
type PatientResponse struct {
	ID               string                   `json:"id"`
	FirstName        string                   `json:"firstName"`
	LastName         string                   `json:"lastName"`
	DateOfBirth      string                   `json:"dateOfBirth"`
	Email            string                   `json:"email"`
	Phone            string                   `json:"phone"`
	Address          AddressResponse          `json:"address"`
	EmergencyContact EmergencyContactResponse `json:"emergencyContact"`
	MedicalInfo      MedicalInfoResponse      `json:"medicalInfo"`
	Insurance        InsuranceResponse        `json:"insurance"`
	Documents        []DocumentResponse       `json:"documents"`
	CreatedAt        string                   `json:"createdAt"`
	UpdatedAt        string                   `json:"updatedAt"`
}

// SummaryResponse is the list-view projection.
type SummaryResponse struct {
	ID                string  `json:"id"`
	FirstName         string  `json:"firstName"`
	LastName          string  `json:"lastName"`
	DateOfBirth       string  `json:"dateOfBirth"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	Status            string  `json:"status"`
	LastVisit         *string `json:"lastVisit"`
	BloodType         *string `json:"bloodType"`
	InsuranceProvider string  `json:"insuranceProvider"`
}

// -- Create --

type AddressInput struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type EmergencyContactInput struct {
	Name         string  `json:"name"`
	Relationship string  `json:"relationship"`
	Phone        string  `json:"phone"`
	Email        *string `json:"email"`
}

type InsuranceInput struct {
	Provider       string   `json:"provider"`
	PolicyNumber   string   `json:"policyNumber"`
	GroupNumber    *string  `json:"groupNumber"`
	EffectiveDate  string   `json:"effectiveDate"`
	ExpirationDate *string  `json:"expirationDate"`
	Copay          *float64 `json:"copay"`
	Deductible     *float64 `json:"deductible"`
}

// MedicationInput is one prescription on create or replace. A client-sent
// id is accepted and ignored; every row gets a fresh id.
type MedicationInput struct {
	ID           *string `json:"id,omitempty"`
	Name         string  `json:"name"`
	Dosage       string  `json:"dosage"`
	Frequency    string  `json:"frequency"`
	PrescribedBy string  `json:"prescribedBy"`
	StartDate    string  `json:"startDate"`
	EndDate      *string `json:"endDate"`
}

type CreatePatientRequest struct {
	FirstName        string                `json:"firstName"`
	LastName         string                `json:"lastName"`
	DateOfBirth      string                `json:"dateOfBirth"`
	Email            string                `json:"email"`
	Phone            string                `json:"phone"`
	BloodType        *string               `json:"bloodType"`
	Address          AddressInput          `json:"address"`
	EmergencyContact EmergencyContactInput `json:"emergencyContact"`
	Insurance        InsuranceInput        `json:"insurance"`
	Allergies        []string              `json:"allergies"`
	Conditions       []string              `json:"conditions"`
	LastVisit        *string               `json:"lastVisit"`
	Status           string                `json:"status"`
	Medications      []MedicationInput     `json:"medications"`
}

// -- Partial updates --
//
// Every leaf is tri-state: absent leaves the column alone, null clears a
// nullable column (and is rejected for required ones), a value sets it.

type AddressPatch struct {
	Street  Nullable[string] `json:"street"`
	City    Nullable[string] `json:"city"`
	State   Nullable[string] `json:"state"`
	ZipCode Nullable[string] `json:"zipCode"`
	Country Nullable[string] `json:"country"`
}

type PersonalInfoUpdate struct {
	FirstName   Nullable[string]       `json:"firstName"`
	LastName    Nullable[string]       `json:"lastName"`
	DateOfBirth Nullable[string]       `json:"dateOfBirth"`
	Email       Nullable[string]       `json:"email"`
	Phone       Nullable[string]       `json:"phone"`
	BloodType   Nullable[string]       `json:"bloodType"`
	Address     Nullable[AddressPatch] `json:"address"`

	// IfUnmodifiedSince is the updatedAt the client last saw.
	IfUnmodifiedSince *string `json:"ifUnmodifiedSince"`
}

type EmergencyContactUpdate struct {
	Name         Nullable[string] `json:"name"`
	Relationship Nullable[string] `json:"relationship"`
	Phone        Nullable[string] `json:"phone"`
	Email        Nullable[string] `json:"email"`
}

type InsuranceUpdate struct {
	Provider       Nullable[string]  `json:"provider"`
	PolicyNumber   Nullable[string]  `json:"policyNumber"`
	GroupNumber    Nullable[string]  `json:"groupNumber"`
	EffectiveDate  Nullable[string]  `json:"effectiveDate"`
	ExpirationDate Nullable[string]  `json:"expirationDate"`
	Copay          Nullable[float64] `json:"copay"`
	Deductible     Nullable[float64] `json:"deductible"`
}

type MedicalInfoUpdate struct {
	Allergies  Nullable[[]string] `json:"allergies"`
	Conditions Nullable[[]string] `json:"conditions"`
	LastVisit  Nullable[string]   `json:"lastVisit"`
	Status     Nullable[string]   `json:"status"`
}

type MedicationsReplace struct {
	Medications []MedicationInput `json:"medications"`
}

// DocumentInput attaches a stored file to a patient. Used by seeding.
type DocumentInput struct {
	Type       string
	Name       string
	UploadDate string
	FileSize   int64
	MimeType   string
	URL        string
}
