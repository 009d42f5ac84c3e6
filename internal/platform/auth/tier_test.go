package auth

import "testing"

func TestTierMatches(t *testing.T) {
	tests := []struct {
		tier Tier
		role string
		want bool
	}{
		{TierClinical, "doctor", true},
		{TierClinical, "Nurse", true},
		{TierClinical, "  PHYSICIAN ", true},
		{TierClinical, "doctors", true},
		{TierClinical, "doc", true},
		{TierClinical, "clinical_staff", true},
		{TierClinical, "admin", false},
		{TierAdmin, "admin", true},
		{TierAdmin, "administrator", true},
		{TierAdmin, "office_staff_temp", true},
		{TierAdmin, "office", true},
		{TierAdmin, "nurse", false},
		{TierAdmin, "system_admin", false},
		{TierSystemAdmin, "system_admin", true},
		{TierSystemAdmin, "Super_Admin", true},
		{TierSystemAdmin, "admin", false},
		{TierClinical, "", false},
		{TierAdmin, "   ", false},
		{TierSystemAdmin, "", false},
	}

	for _, tt := range tests {
		if got := tt.tier.Matches(tt.role); got != tt.want {
			t.Errorf("%s.Matches(%q) = %v, want %v", tt.tier, tt.role, got, tt.want)
		}
	}
}

func TestSatisfies_SystemAdminOverride(t *testing.T) {
	for _, tier := range AllTiers {
		if !Satisfies("system_admin", tier) {
			t.Errorf("expected system_admin to satisfy %s", tier)
		}
	}
	if !Satisfies("super_admin", TierClinical) {
		t.Error("expected super_admin to satisfy clinical tier")
	}
	if !Satisfies("system_admin") {
		t.Error("expected system_admin to satisfy an empty requirement")
	}
}

func TestSatisfies(t *testing.T) {
	if !Satisfies("Nurse", TierClinical) {
		t.Error("expected Nurse to satisfy clinical tier")
	}
	if !Satisfies("office_staff_temp", TierAdmin) {
		t.Error("expected office_staff_temp to satisfy admin tier")
	}
	if Satisfies("nurse", TierAdmin, TierSystemAdmin) {
		t.Error("expected nurse to fail admin/system tiers")
	}
	if !Satisfies("nurse", TierAdmin, TierClinical) {
		t.Error("expected nurse to pass when any required tier matches")
	}
	if Satisfies("", AllTiers...) {
		t.Error("expected empty role to satisfy nothing")
	}
	if Satisfies("receptionist", AllTiers...) {
		t.Error("expected unknown role to satisfy nothing")
	}
}

func TestClassify(t *testing.T) {
	if got := Classify("doctor"); len(got) != 1 || got[0] != TierClinical {
		t.Errorf("expected [CLINICAL_STAFF], got %v", got)
	}
	if got := Classify("system_admin"); len(got) != len(AllTiers) {
		t.Errorf("expected every tier for system_admin, got %v", got)
	}
	if got := Classify("janitor"); len(got) != 0 {
		t.Errorf("expected no tiers, got %v", got)
	}
}
