package patient

import (
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/carepanel/carepanel/pkg/apperrors"
)

// Changes maps patients columns to their new values. A nil value clears the
// column.
type Changes map[string]any

// columnWidths mirrors the VARCHAR widths of the patients table, plus the
// medication and document columns under a "medications."/"documents."
// prefix. Postgres counts characters, not bytes.
var columnWidths = map[string]int{
	"first_name":                     100,
	"last_name":                      100,
	"email":                          255,
	"phone":                          20,
	"address_street":                 255,
	"address_city":                   100,
	"address_state":                  50,
	"address_zip_code":               20,
	"address_country":                100,
	"emergency_contact_name":         200,
	"emergency_contact_relationship": 50,
	"emergency_contact_phone":        20,
	"emergency_contact_email":        255,
	"insurance_provider":             200,
	"insurance_policy_number":        100,
	"insurance_group_number":         100,

	"medications.name":          200,
	"medications.dosage":        100,
	"medications.frequency":     100,
	"medications.prescribed_by": 200,

	"documents.name":      255,
	"documents.mime_type": 100,
	"documents.url":       500,
}

// maxAmountCents is the exclusive bound of a NUMERIC(10,2) column, in cents.
const maxAmountCents = 1e10

func checkWidth(col, field, s string) error {
	if n, ok := columnWidths[col]; ok && utf8.RuneCountInString(s) > n {
		return apperrors.NewValidationErrorf("%s must be at most %d characters", field, n)
	}
	return nil
}

func checkAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(math.Round(v*100)) >= maxAmountCents {
		return apperrors.NewValidationErrorf("%s must be less than 100000000", field)
	}
	return nil
}

func validateEmail(field, s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return apperrors.NewValidationErrorf("%s must be a valid email address", field)
	}
	return nil
}

func requireText(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return apperrors.NewValidationErrorf("%s is required", field)
	}
	return nil
}

// normalizeSet trims entries, drops blanks and duplicates, keeping first
// occurrence order.
func normalizeSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func (mi MedicationInput) validate(i int) error {
	for _, f := range []struct{ name, col, value string }{
		{"name", "medications.name", mi.Name},
		{"dosage", "medications.dosage", mi.Dosage},
		{"frequency", "medications.frequency", mi.Frequency},
		{"prescribedBy", "medications.prescribed_by", mi.PrescribedBy},
		{"startDate", "", mi.StartDate},
	} {
		if strings.TrimSpace(f.value) == "" {
			return apperrors.NewValidationErrorf("medications[%d].%s is required", i, f.name)
		}
		if err := checkWidth(f.col, fmt.Sprintf("medications[%d].%s", i, f.name), f.value); err != nil {
			return err
		}
	}
	return nil
}

// toPatient validates the create payload and builds the row it describes.
func (r *CreatePatientRequest) toPatient(id string, now time.Time) (*Patient, error) {
	for _, f := range []struct{ name, col, value string }{
		{"firstName", "first_name", r.FirstName},
		{"lastName", "last_name", r.LastName},
		{"dateOfBirth", "", r.DateOfBirth},
		{"email", "email", r.Email},
		{"phone", "phone", r.Phone},
		{"address.street", "address_street", r.Address.Street},
		{"address.city", "address_city", r.Address.City},
		{"address.state", "address_state", r.Address.State},
		{"address.zipCode", "address_zip_code", r.Address.ZipCode},
		{"emergencyContact.name", "emergency_contact_name", r.EmergencyContact.Name},
		{"emergencyContact.relationship", "emergency_contact_relationship", r.EmergencyContact.Relationship},
		{"emergencyContact.phone", "emergency_contact_phone", r.EmergencyContact.Phone},
		{"insurance.provider", "insurance_provider", r.Insurance.Provider},
		{"insurance.policyNumber", "insurance_policy_number", r.Insurance.PolicyNumber},
		{"insurance.effectiveDate", "", r.Insurance.EffectiveDate},
	} {
		if err := requireText(f.name, f.value); err != nil {
			return nil, err
		}
		if err := checkWidth(f.col, f.name, f.value); err != nil {
			return nil, err
		}
	}
	for _, f := range []struct {
		name, col string
		value     *string
	}{
		{"address.country", "address_country", &r.Address.Country},
		{"emergencyContact.email", "emergency_contact_email", r.EmergencyContact.Email},
		{"insurance.groupNumber", "insurance_group_number", r.Insurance.GroupNumber},
	} {
		if f.value == nil {
			continue
		}
		if err := checkWidth(f.col, f.name, *f.value); err != nil {
			return nil, err
		}
	}
	if r.Insurance.Copay == nil {
		return nil, apperrors.NewValidationError("insurance.copay is required")
	}
	if r.Insurance.Deductible == nil {
		return nil, apperrors.NewValidationError("insurance.deductible is required")
	}
	if err := checkAmount("insurance.copay", *r.Insurance.Copay); err != nil {
		return nil, err
	}
	if err := checkAmount("insurance.deductible", *r.Insurance.Deductible); err != nil {
		return nil, err
	}
	if err := validateEmail("email", r.Email); err != nil {
		return nil, err
	}
	if e := r.EmergencyContact.Email; e != nil {
		if err := validateEmail("emergencyContact.email", *e); err != nil {
			return nil, err
		}
	}

	status := r.Status
	if status == "" {
		status = string(StatusActive)
	}
	if !IsValidStatus(status) {
		return nil, apperrors.NewValidationErrorf("invalid status %q", status)
	}
	if r.BloodType != nil && !IsValidBloodType(*r.BloodType) {
		return nil, apperrors.NewValidationErrorf("invalid bloodType %q", *r.BloodType)
	}

	dob, err := parseDate("dateOfBirth", r.DateOfBirth)
	if err != nil {
		return nil, err
	}
	effective, err := parseDate("insurance.effectiveDate", r.Insurance.EffectiveDate)
	if err != nil {
		return nil, err
	}
	expiration, err := parseDatePtr("insurance.expirationDate", r.Insurance.ExpirationDate)
	if err != nil {
		return nil, err
	}
	lastVisit, err := parseDatePtr("lastVisit", r.LastVisit)
	if err != nil {
		return nil, err
	}

	country := r.Address.Country
	if country == "" {
		country = "USA"
	}

	return &Patient{
		ID:          id,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		DateOfBirth: dob,
		Email:       r.Email,
		Phone:       r.Phone,

		AddressStreet:  r.Address.Street,
		AddressCity:    r.Address.City,
		AddressState:   r.Address.State,
		AddressZipCode: r.Address.ZipCode,
		AddressCountry: country,

		EmergencyContactName:         r.EmergencyContact.Name,
		EmergencyContactRelationship: r.EmergencyContact.Relationship,
		EmergencyContactPhone:        r.EmergencyContact.Phone,
		EmergencyContactEmail:        r.EmergencyContact.Email,

		Allergies:  normalizeSet(r.Allergies),
		Conditions: normalizeSet(r.Conditions),
		BloodType:  r.BloodType,
		LastVisit:  lastVisit,
		Status:     status,

		InsuranceProvider:       r.Insurance.Provider,
		InsurancePolicyNumber:   r.Insurance.PolicyNumber,
		InsuranceGroupNumber:    r.Insurance.GroupNumber,
		InsuranceEffectiveDate:  effective,
		InsuranceExpirationDate: expiration,
		InsuranceCopay:          *r.Insurance.Copay,
		InsuranceDeductible:     *r.Insurance.Deductible,

		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// -- patch helpers --

func setText(ch Changes, col, field string, v Nullable[string]) error {
	if !v.Set {
		return nil
	}
	if !v.Valid {
		return apperrors.NewValidationErrorf("%s cannot be null", field)
	}
	if err := requireText(field, v.Value); err != nil {
		return err
	}
	if err := checkWidth(col, field, v.Value); err != nil {
		return err
	}
	ch[col] = v.Value
	return nil
}

func setOptionalText(ch Changes, col, field string, v Nullable[string]) error {
	if !v.Set {
		return nil
	}
	if !v.Valid {
		ch[col] = nil
		return nil
	}
	if err := checkWidth(col, field, v.Value); err != nil {
		return err
	}
	ch[col] = v.Value
	return nil
}

func setDate(ch Changes, col, field string, v Nullable[string]) error {
	if !v.Set {
		return nil
	}
	if !v.Valid {
		return apperrors.NewValidationErrorf("%s cannot be null", field)
	}
	t, err := parseDate(field, v.Value)
	if err != nil {
		return err
	}
	ch[col] = t
	return nil
}

func setOptionalDate(ch Changes, col, field string, v Nullable[string]) error {
	if !v.Set {
		return nil
	}
	if !v.Valid {
		ch[col] = nil
		return nil
	}
	t, err := parseDate(field, v.Value)
	if err != nil {
		return err
	}
	ch[col] = t
	return nil
}

func setAmount(ch Changes, col, field string, v Nullable[float64]) error {
	if !v.Set {
		return nil
	}
	if !v.Valid {
		return apperrors.NewValidationErrorf("%s cannot be null", field)
	}
	if err := checkAmount(field, v.Value); err != nil {
		return err
	}
	ch[col] = v.Value
	return nil
}

func (u *PersonalInfoUpdate) changes() (Changes, error) {
	ch := Changes{}
	if err := setText(ch, "first_name", "firstName", u.FirstName); err != nil {
		return nil, err
	}
	if err := setText(ch, "last_name", "lastName", u.LastName); err != nil {
		return nil, err
	}
	if err := setDate(ch, "date_of_birth", "dateOfBirth", u.DateOfBirth); err != nil {
		return nil, err
	}
	if u.Email.Valid {
		if err := validateEmail("email", u.Email.Value); err != nil {
			return nil, err
		}
	}
	if err := setText(ch, "email", "email", u.Email); err != nil {
		return nil, err
	}
	if err := setText(ch, "phone", "phone", u.Phone); err != nil {
		return nil, err
	}
	if u.BloodType.Valid && !IsValidBloodType(u.BloodType.Value) {
		return nil, apperrors.NewValidationErrorf("invalid bloodType %q", u.BloodType.Value)
	}
	if err := setOptionalText(ch, "blood_type", "bloodType", u.BloodType); err != nil {
		return nil, err
	}

	if u.Address.Set {
		if !u.Address.Valid {
			return nil, apperrors.NewValidationError("address cannot be null")
		}
		a := u.Address.Value
		for _, f := range []struct {
			col, field string
			v          Nullable[string]
		}{
			{"address_street", "address.street", a.Street},
			{"address_city", "address.city", a.City},
			{"address_state", "address.state", a.State},
			{"address_zip_code", "address.zipCode", a.ZipCode},
			{"address_country", "address.country", a.Country},
		} {
			if err := setText(ch, f.col, f.field, f.v); err != nil {
				return nil, err
			}
		}
	}
	return ch, nil
}

// unmodifiedSince parses the optimistic concurrency token. ok is false
// when the token is absent or unparseable, which skips the check.
func (u *PersonalInfoUpdate) unmodifiedSince() (t time.Time, ok bool) {
	if u.IfUnmodifiedSince == nil {
		return time.Time{}, false
	}
	return parseTimestamp(*u.IfUnmodifiedSince)
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds, and
// zone-less ISO forms which are read as UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		DateLayout,
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (u *EmergencyContactUpdate) changes() (Changes, error) {
	ch := Changes{}
	if err := setText(ch, "emergency_contact_name", "name", u.Name); err != nil {
		return nil, err
	}
	if err := setText(ch, "emergency_contact_relationship", "relationship", u.Relationship); err != nil {
		return nil, err
	}
	if err := setText(ch, "emergency_contact_phone", "phone", u.Phone); err != nil {
		return nil, err
	}
	if u.Email.Valid {
		if err := validateEmail("email", u.Email.Value); err != nil {
			return nil, err
		}
	}
	if err := setOptionalText(ch, "emergency_contact_email", "email", u.Email); err != nil {
		return nil, err
	}
	return ch, nil
}

func (u *InsuranceUpdate) changes() (Changes, error) {
	ch := Changes{}
	if err := setText(ch, "insurance_provider", "provider", u.Provider); err != nil {
		return nil, err
	}
	if err := setText(ch, "insurance_policy_number", "policyNumber", u.PolicyNumber); err != nil {
		return nil, err
	}
	if err := setOptionalText(ch, "insurance_group_number", "groupNumber", u.GroupNumber); err != nil {
		return nil, err
	}
	if err := setDate(ch, "insurance_effective_date", "effectiveDate", u.EffectiveDate); err != nil {
		return nil, err
	}
	if err := setOptionalDate(ch, "insurance_expiration_date", "expirationDate", u.ExpirationDate); err != nil {
		return nil, err
	}
	if err := setAmount(ch, "insurance_copay", "copay", u.Copay); err != nil {
		return nil, err
	}
	if err := setAmount(ch, "insurance_deductible", "deductible", u.Deductible); err != nil {
		return nil, err
	}
	return ch, nil
}

func (u *MedicalInfoUpdate) changes() (Changes, error) {
	ch := Changes{}
	if u.Allergies.Set {
		ch["allergies"] = normalizeSet(u.Allergies.Value)
	}
	if u.Conditions.Set {
		ch["conditions"] = normalizeSet(u.Conditions.Value)
	}
	if err := setOptionalDate(ch, "last_visit", "lastVisit", u.LastVisit); err != nil {
		return nil, err
	}
	if u.Status.Set {
		if !u.Status.Valid {
			return nil, apperrors.NewValidationError("status cannot be null")
		}
		if !IsValidStatus(u.Status.Value) {
			return nil, apperrors.NewValidationErrorf("invalid status %q", u.Status.Value)
		}
		ch["status"] = u.Status.Value
	}
	return ch, nil
}
