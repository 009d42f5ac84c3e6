package patient

import (
	"time"

	"github.com/carepanel/carepanel/pkg/apperrors"
)

// DateLayout is the wire form of calendar dates.
const DateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseDate parses a YYYY-MM-DD value for field, failing with a
// validation error naming the field.
func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.NewValidationErrorf("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

func parseDatePtr(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ToResponse assembles the nested wire shape from flat columns and owned
// rows. Only active medications are listed as current.
func (p *Patient) ToResponse() PatientResponse {
	meds := make([]MedicationResponse, 0, len(p.Medications))
	for _, m := range p.ActiveMedications() {
		meds = append(meds, m.ToResponse())
	}
	docs := make([]DocumentResponse, 0, len(p.Documents))
	for _, d := range p.Documents {
		docs = append(docs, d.ToResponse())
	}

	return PatientResponse{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DateOfBirth: formatDate(p.DateOfBirth),
		Email:       p.Email,
		Phone:       p.Phone,
		Address: AddressResponse{
			Street:  p.AddressStreet,
			City:    p.AddressCity,
			State:   p.AddressState,
			ZipCode: p.AddressZipCode,
			Country: p.AddressCountry,
		},
		EmergencyContact: EmergencyContactResponse{
			Name:         p.EmergencyContactName,
			Relationship: p.EmergencyContactRelationship,
			Phone:        p.EmergencyContactPhone,
			Email:        p.EmergencyContactEmail,
		},
		MedicalInfo: MedicalInfoResponse{
			Allergies:          nonNil(p.Allergies),
			CurrentMedications: meds,
			Conditions:         nonNil(p.Conditions),
			BloodType:          p.BloodType,
			LastVisit:          formatDatePtr(p.LastVisit),
			Status:             p.Status,
		},
		Insurance: InsuranceResponse{
			Provider:       p.InsuranceProvider,
			PolicyNumber:   p.InsurancePolicyNumber,
			GroupNumber:    p.InsuranceGroupNumber,
			EffectiveDate:  formatDate(p.InsuranceEffectiveDate),
			ExpirationDate: formatDatePtr(p.InsuranceExpirationDate),
			Copay:          p.InsuranceCopay,
			Deductible:     p.InsuranceDeductible,
		},
		Documents: docs,
		CreatedAt: formatTimestamp(p.CreatedAt),
		UpdatedAt: formatTimestamp(p.UpdatedAt),
	}
}

func (m *Medication) ToResponse() MedicationResponse {
	return MedicationResponse{
		ID:           m.ID,
		Name:         m.Name,
		Dosage:       m.Dosage,
		Frequency:    m.Frequency,
		PrescribedBy: m.PrescribedBy,
		StartDate:    formatDate(m.StartDate),
		EndDate:      formatDatePtr(m.EndDate),
		IsActive:     m.IsActive,
	}
}

func (d *Document) ToResponse() DocumentResponse {
	return DocumentResponse{
		ID:         d.ID,
		Type:       d.Type,
		Name:       d.Name,
		UploadDate: formatDate(d.UploadDate),
		FileSize:   d.FileSize,
		MimeType:   d.MimeType,
		URL:        d.URL,
	}
}

func (s *Summary) ToResponse() SummaryResponse {
	return SummaryResponse{
		ID:                s.ID,
		FirstName:         s.FirstName,
		LastName:          s.LastName,
		DateOfBirth:       formatDate(s.DateOfBirth),
		Email:             s.Email,
		Phone:             s.Phone,
		Status:            s.Status,
		LastVisit:         formatDatePtr(s.LastVisit),
		BloodType:         s.BloodType,
		InsuranceProvider: s.InsuranceProvider,
	}
}

// newMedications converts inputs into fresh active rows for patientID.
func newMedications(patientID string, in []MedicationInput, newID func() string) ([]*Medication, error) {
	out := make([]*Medication, 0, len(in))
	for i, mi := range in {
		if err := mi.validate(i); err != nil {
			return nil, err
		}
		start, err := parseDate("medications.startDate", mi.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := parseDatePtr("medications.endDate", mi.EndDate)
		if err != nil {
			return nil, err
		}
		out = append(out, &Medication{
			ID:           newID(),
			PatientID:    patientID,
			Name:         mi.Name,
			Dosage:       mi.Dosage,
			Frequency:    mi.Frequency,
			PrescribedBy: mi.PrescribedBy,
			StartDate:    start,
			EndDate:      end,
			IsActive:     true,
		})
	}
	return out, nil
}

// newDocuments converts inputs into rows for patientID.
func newDocuments(patientID string, in []DocumentInput, newID func() string) ([]*Document, error) {
	out := make([]*Document, 0, len(in))
	for _, di := range in {
		if !IsValidDocumentType(di.Type) {
			return nil, apperrors.NewValidationErrorf("invalid document type %q", di.Type)
		}
		for _, f := range []struct{ col, value string }{
			{"documents.name", di.Name},
			{"documents.mime_type", di.MimeType},
			{"documents.url", di.URL},
		} {
			if err := checkWidth(f.col, f.col, f.value); err != nil {
				return nil, err
			}
		}
		uploaded, err := parseDate("documents.uploadDate", di.UploadDate)
		if err != nil {
			return nil, err
		}
		out = append(out, &Document{
			ID:         newID(),
			PatientID:  patientID,
			Type:       di.Type,
			Name:       di.Name,
			UploadDate: uploaded,
			FileSize:   di.FileSize,
			MimeType:   di.MimeType,
			URL:        di.URL,
		})
	}
	return out, nil
}
