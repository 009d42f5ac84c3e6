package auth

import "strings"

// Tier is a role capability level used for access control.
type Tier string

const (
	TierClinical    Tier = "CLINICAL_STAFF"
	TierAdmin       Tier = "ADMIN"
	TierSystemAdmin Tier = "SYSTEM_ADMIN"
)

// AllTiers lists every tier, lowest first.
var AllTiers = []Tier{TierClinical, TierAdmin, TierSystemAdmin}

// canonicalRoles are the role labels that define each tier.
var canonicalRoles = map[Tier][]string{
	TierClinical:    {"clinical_staff", "doctor", "nurse", "physician"},
	TierAdmin:       {"admin", "office_staff", "administrator"},
	TierSystemAdmin: {"system_admin", "super_admin"},
}

// NormalizeRole case-folds and trims a free-text role label.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// Matches reports whether role belongs to t. Matching is case-insensitive
// and tolerates naming variants in either direction ("doctors" vs "doctor",
// "admin" vs "administrator"). An empty role matches nothing. The legacy
// prefix predicate let "" match every tier, system admin included; that is
// deliberately not reproduced.
func (t Tier) Matches(role string) bool {
	r := NormalizeRole(role)
	if r == "" {
		return false
	}
	for _, label := range canonicalRoles[t] {
		if r == label || strings.HasPrefix(label, r) || strings.HasPrefix(r, label) {
			return true
		}
	}
	return false
}

// Classify returns every tier role belongs to, lowest first. A system
// admin is reported as belonging to every tier.
func Classify(role string) []Tier {
	if TierSystemAdmin.Matches(role) {
		return append([]Tier(nil), AllTiers...)
	}
	var tiers []Tier
	for _, t := range AllTiers {
		if t.Matches(role) {
			tiers = append(tiers, t)
		}
	}
	return tiers
}

// Satisfies reports whether role passes a check requiring any of the given
// tiers. System admins satisfy every check.
func Satisfies(role string, required ...Tier) bool {
	if TierSystemAdmin.Matches(role) {
		return true
	}
	for _, t := range required {
		if t.Matches(role) {
			return true
		}
	}
	return false
}

func tierNames(tiers []Tier) string {
	names := make([]string, len(tiers))
	for i, t := range tiers {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
