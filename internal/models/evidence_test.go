package models

import (
	"strings"
	"testing"
)

func TestDescriptionRoundTrip(t *testing.T) {
	meta := EvidenceMeta{
		SHA256:       "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		CaseID:       "CASE-001",
		Investigator: "Det. Rivera",
		Location:     "Warehouse 12",
		Notes:        "north entrance, seized 03:40",
	}

	desc := BuildDescription(meta)
	if !strings.Contains(desc, `"type":"EvidenceMeta"`) {
		t.Errorf("description missing type discriminant: %s", desc)
	}

	got := ParseDescription(desc)
	if got != meta {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, meta)
	}
}

func TestParseDescriptionRejectsQuietly(t *testing.T) {
	cases := []struct {
		name string
		desc string
	}{
		{"empty", ""},
		{"not json", "plain text description"},
		{"wrong type", `{"type":"SomethingElse","sha256":"abc"}`},
		{"no type", `{"sha256":"abc","caseId":"CASE-001"}`},
		{"json array", `["abc"]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseDescription(tc.desc); !got.IsZero() {
				t.Errorf("ParseDescription(%q) = %+v, want zero meta", tc.desc, got)
			}
		})
	}
}

func TestSecretHashing(t *testing.T) {
	hash, err := HashSecret("investigator123")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if !CheckSecret(hash, "investigator123") {
		t.Error("correct secret rejected")
	}
	if CheckSecret(hash, "admin123") {
		t.Error("wrong secret accepted")
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleInvestigator, RoleAdmin, RoleAuditor} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false", role)
		}
	}
	for _, role := range []string{"", "superuser", "Investigator"} {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true", role)
		}
	}
}
