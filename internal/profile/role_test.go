package profile

import (
	"encoding/json"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{"employer", RoleEmployer, true},
		{"employee", RoleEmployee, true},
		{"", 0, false},
		{"Admin", 0, false},
		{"manager", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseRole(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseRole(%q) succeeded, want error", tc.in)
		}
	}
}

func TestRoleRoundTrip(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleEmployer, RoleEmployee} {
		parsed, err := ParseRole(role.String())
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", role.String(), err)
		}
		if parsed != role {
			t.Fatalf("round trip changed role: %v -> %v", role, parsed)
		}
	}
}

func TestRoleJSON(t *testing.T) {
	p := Profile{ID: "u1", Username: "ana", Role: RoleEmployer}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Profile
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Role != RoleEmployer {
		t.Fatalf("unexpected role after round trip: %v", decoded.Role)
	}

	var invalid Profile
	if err := json.Unmarshal([]byte(`{"id":"u1","username":"x","role":"root"}`), &invalid); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestRoleMarshalInvalid(t *testing.T) {
	bad := Role(42)
	if bad.Valid() {
		t.Fatal("Role(42) should not be valid")
	}
	if _, err := bad.MarshalText(); err == nil {
		t.Fatal("expected marshal error for invalid role")
	}
}
