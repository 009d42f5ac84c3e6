package patient

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func samplePatient() *Patient {
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &Patient{
		ID:                     "p-1",
		FirstName:              "Ada",
		LastName:               "Lovelace",
		DateOfBirth:            time.Date(1985, 12, 10, 0, 0, 0, 0, time.UTC),
		Email:                  "ada@example.com",
		Phone:                  "555-0100",
		AddressCountry:         "USA",
		Status:                 "active",
		InsuranceProvider:      "Aetna",
		InsuranceEffectiveDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		InsuranceCopay:         25.5,
		CreatedAt:              time.Date(2024, 6, 1, 12, 0, 0, 123456000, time.UTC),
		UpdatedAt:              time.Date(2024, 6, 2, 8, 30, 0, 0, time.FixedZone("EST", -5*3600)),
		Medications: []*Medication{
			{ID: "m-1", Name: "Lisinopril", StartDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), IsActive: true},
			{ID: "m-2", Name: "Old", StartDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: &end, IsActive: false},
		},
		Documents: []*Document{
			{ID: "d-1", Type: "photo_id", Name: "License", UploadDate: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), FileSize: 10},
		},
	}
}

func TestToResponse_ActiveMedicationsOnly(t *testing.T) {
	r := samplePatient().ToResponse()
	if len(r.MedicalInfo.CurrentMedications) != 1 || r.MedicalInfo.CurrentMedications[0].ID != "m-1" {
		t.Errorf("expected only the active medication, got %+v", r.MedicalInfo.CurrentMedications)
	}
}

func TestToResponse_Formats(t *testing.T) {
	r := samplePatient().ToResponse()

	if r.DateOfBirth != "1985-12-10" {
		t.Errorf("dateOfBirth: %q", r.DateOfBirth)
	}
	if r.CreatedAt != "2024-06-01T12:00:00.123456Z" {
		t.Errorf("createdAt: %q", r.CreatedAt)
	}
	if r.UpdatedAt != "2024-06-02T13:30:00Z" {
		t.Errorf("updatedAt should be rendered in UTC: %q", r.UpdatedAt)
	}
	if r.Insurance.EffectiveDate != "2024-01-01" || r.Insurance.ExpirationDate != nil {
		t.Errorf("insurance dates: %q %v", r.Insurance.EffectiveDate, r.Insurance.ExpirationDate)
	}
	if r.Documents[0].UploadDate != "2024-02-02" {
		t.Errorf("uploadDate: %q", r.Documents[0].UploadDate)
	}
}

func TestToResponse_AbsentValues(t *testing.T) {
	p := &Patient{ID: "p-2"}
	b, err := json.Marshal(p.ToResponse())
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)

	for _, want := range []string{
		`"dateOfBirth":""`,
		`"createdAt":""`,
		`"updatedAt":""`,
		`"effectiveDate":""`,
		`"lastVisit":null`,
		`"bloodType":null`,
		`"expirationDate":null`,
		`"groupNumber":null`,
		`"email":null`,
		`"allergies":[]`,
		`"conditions":[]`,
		`"currentMedications":[]`,
		`"documents":[]`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}

func TestMedicationToResponse_EndDate(t *testing.T) {
	r := samplePatient().Medications[1].ToResponse()
	if r.EndDate == nil || *r.EndDate != "2024-03-01" {
		t.Errorf("endDate: %v", r.EndDate)
	}
	if r.StartDate != "2023-01-01" {
		t.Errorf("startDate: %q", r.StartDate)
	}
}

func TestSummaryToResponse(t *testing.T) {
	lv := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	bt := "O-"
	s := (&Summary{ID: "p-1", LastName: "Hopper", Status: "critical", LastVisit: &lv, BloodType: &bt, InsuranceProvider: "Cigna"}).ToResponse()

	if s.LastVisit == nil || *s.LastVisit != "2024-05-05" {
		t.Errorf("lastVisit: %v", s.LastVisit)
	}
	if s.BloodType == nil || *s.BloodType != "O-" || s.InsuranceProvider != "Cigna" {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestSummaryResponse_HasNoNestedSections(t *testing.T) {
	b, _ := json.Marshal((&Summary{ID: "x"}).ToResponse())
	for _, key := range []string{"medicalInfo", "insurance", "documents", "address"} {
		if strings.Contains(string(b), `"`+key+`"`) {
			t.Errorf("list projection must not carry %s: %s", key, b)
		}
	}
}
