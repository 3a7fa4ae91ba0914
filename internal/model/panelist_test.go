package model

import (
	"strings"
	"testing"
)

// ============================================================================
// Panelist Tests
// ============================================================================

func TestPanelist_AccountName_UsesRecordKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want string
	}{
		{"panelist:42", "Panelist-42"},
		{"panelist:7", "Panelist-7"},
		{"panelist:⟨abc-def⟩", "Panelist-abc-def"},
		{"99", "Panelist-99"},
	}

	for _, tt := range tests {
		p := &Panelist{ID: tt.id}
		if got := p.AccountName(); got != tt.want {
			t.Errorf("AccountName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestPanelist_IsProvisioned(t *testing.T) {
	t.Parallel()

	p := &Panelist{ID: "panelist:1"}
	if p.IsProvisioned() {
		t.Error("panelist without user should not be provisioned")
	}

	empty := ""
	p.UserID = &empty
	if p.IsProvisioned() {
		t.Error("panelist with empty user ID should not be provisioned")
	}

	userID := "user:1"
	p.UserID = &userID
	if !p.IsProvisioned() {
		t.Error("panelist with user ID should be provisioned")
	}
}

// ============================================================================
// CreatePanelistRequest Tests
// ============================================================================

func validPanelistRequest() *CreatePanelistRequest {
	return &CreatePanelistRequest{
		Firstname:    "Smith",
		Lastname:     "Smith",
		Email:        "smith@example.com",
		Bibliography: "bibliography",
	}
}

func TestCreatePanelistRequest_Validate_Valid(t *testing.T) {
	t.Parallel()

	if errs := validPanelistRequest().Validate(); len(errs) > 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestCreatePanelistRequest_Validate_MissingFields(t *testing.T) {
	t.Parallel()

	req := &CreatePanelistRequest{}
	errs := req.Validate()

	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, f := range []string{"firstname", "lastname", "email"} {
		if !fields[f] {
			t.Errorf("expected %s error, got %v", f, errs)
		}
	}
}

func TestCreatePanelistRequest_Validate_TooLong(t *testing.T) {
	t.Parallel()

	req := validPanelistRequest()
	req.Firstname = strings.Repeat("a", MaxPanelistNameLength+1)
	req.Bibliography = strings.Repeat("b", MaxPanelistBibliographyLength+1)

	errs := req.Validate()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if errs[0].Field != "firstname" || errs[1].Field != "bibliography" {
		t.Errorf("unexpected fields: %v", errs)
	}
}

func TestCreatePanelistRequest_Normalize(t *testing.T) {
	t.Parallel()

	req := &CreatePanelistRequest{
		Firstname: "  Ada ",
		Lastname:  " Lovelace",
		Email:     " Ada@Example.COM ",
	}
	req.Normalize()

	if req.Firstname != "Ada" || req.Lastname != "Lovelace" {
		t.Errorf("names not trimmed: %q %q", req.Firstname, req.Lastname)
	}
	if req.Email != "ada@example.com" {
		t.Errorf("email not normalized: %q", req.Email)
	}
}

func TestIsValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		valid bool
	}{
		{"smith@example.com", true},
		{"user.name@domain.co.uk", true},
		{"", false},
		{"no-at-sign.com", false},
		{"@example.com", false},
		{"a@b@example.com", false},
		{"smith@example", false},
		{"smith@example.", false},
		{"smi th@example.com", false},
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.email); got != tt.valid {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.valid)
		}
	}
}

// ============================================================================
// Role / Course Tests
// ============================================================================

func TestNormalizeSystemRole(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                   NoSystemRole,
		"0":                  NoSystemRole,
		" 0 ":                NoSystemRole,
		"role:coursecreator": "role:coursecreator",
	}
	for in, want := range tests {
		if got := NormalizeSystemRole(in); got != want {
			t.Errorf("NormalizeSystemRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRoleRecordID(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                   "",
		"coursecreator":      "role:coursecreator",
		" 5 ":                "role:5",
		"role:coursecreator": "role:coursecreator",
		"user:5":             "user:5",
	}
	for in, want := range tests {
		if got := RoleRecordID(in); got != want {
			t.Errorf("RoleRecordID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContextKind_IsValid(t *testing.T) {
	t.Parallel()

	if !ContextSystem.IsValid() || !ContextCourse.IsValid() {
		t.Error("known context kinds should be valid")
	}
	if ContextKind("module").IsValid() {
		t.Error("unknown context kind should be invalid")
	}
}

func TestConcordance_PanelistCourseID(t *testing.T) {
	t.Parallel()

	c := &Concordance{CourseID: "course:1", CourseGenerated: "course:2"}
	if got := c.PanelistCourseID(); got != "course:2" {
		t.Errorf("expected generated course, got %q", got)
	}

	c.CourseGenerated = ""
	if got := c.PanelistCourseID(); got != "course:1" {
		t.Errorf("expected owning course fallback, got %q", got)
	}
}
