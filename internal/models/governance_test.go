package models

import "testing"

func TestGovernanceKey_Labels(t *testing.T) {
	cases := []struct {
		name string
		key  GovernanceKey
		want string
	}{
		{"vehicle", VehicleKey("F42"), "F42"},
		{"portfolio fallback", PortfolioKey("P7"), "P7"},
		{"uncategorized", UncategorizedKey(), "#OUTROS"},
		{"unassigned", GovernanceKey{}, ""},
	}
	for _, c := range cases {
		if got := c.key.Label(); got != c.want {
			t.Errorf("%s: Label() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestGovernanceKey_IsZero(t *testing.T) {
	if !(GovernanceKey{}).IsZero() {
		t.Error("zero key: IsZero() = false, want true")
	}
	if VehicleKey("F1").IsZero() {
		t.Error("vehicle key: IsZero() = true, want false")
	}
	if UncategorizedKey().IsZero() {
		t.Error("uncategorized key: IsZero() = true, want false")
	}
}

func TestVehicleSet_Contains(t *testing.T) {
	set := NewVehicleSet([]string{"F1", "F2", ""})

	if !set.Contains("F1") || !set.Contains("F2") {
		t.Error("set missing declared members")
	}
	if set.Contains("F3") {
		t.Error("Contains(F3) = true, want false")
	}
	if set.Contains("") {
		t.Error("empty id must never be a member")
	}
}

func TestContractError_Message(t *testing.T) {
	err := NewContractError("expand", "fund_ref", "date")
	want := "expand: missing required columns: fund_ref, date"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
