package model

import (
	"strings"
	"time"
)

// PanelistNamePrefix prefixes the first and last name of every panelist account
const PanelistNamePrefix = "Panelist-"

// Field limits for panelist registration
const (
	MaxPanelistNameLength         = 100
	MaxPanelistEmailLength        = 254
	MaxPanelistBibliographyLength = 10000
)

// Panelist is an external reviewer attached to a concordance activity.
// UserID stays nil until the backing account has been provisioned.
type Panelist struct {
	ID            string    `json:"id"`
	ConcordanceID string    `json:"concordance_id"`
	UserID        *string   `json:"user_id,omitempty"`
	Firstname     string    `json:"firstname"`
	Lastname      string    `json:"lastname"`
	Email         string    `json:"email"`
	Bibliography  string    `json:"bibliography,omitempty"`
	CreatedOn     time.Time `json:"created_on"`
	UpdatedOn     time.Time `json:"updated_on"`
}

// IsProvisioned returns true once a platform account is attached
func (p *Panelist) IsProvisioned() bool {
	return p.UserID != nil && *p.UserID != ""
}

// Key returns the record key of the panelist without its table prefix
func (p *Panelist) Key() string {
	return RecordKey(p.ID)
}

// AccountName returns the name given to the panelist's platform account
func (p *Panelist) AccountName() string {
	return PanelistNamePrefix + p.Key()
}

// RecordKey strips the table prefix from a record ID ("panelist:42" -> "42")
func RecordKey(id string) string {
	if i := strings.Index(id, ":"); i >= 0 {
		return strings.Trim(id[i+1:], "⟨⟩`")
	}
	return id
}

// CreatePanelistRequest is the payload for registering a panelist
type CreatePanelistRequest struct {
	Firstname    string `json:"firstname"`
	Lastname     string `json:"lastname"`
	Email        string `json:"email"`
	Bibliography string `json:"bibliography,omitempty"`
}

// Normalize trims surrounding whitespace and lowercases the email
func (r *CreatePanelistRequest) Normalize() {
	r.Firstname = strings.TrimSpace(r.Firstname)
	r.Lastname = strings.TrimSpace(r.Lastname)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Bibliography = strings.TrimSpace(r.Bibliography)
}

// Validate checks the request and returns every field error found
func (r *CreatePanelistRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Firstname == "" {
		errors = append(errors, FieldError{Field: "firstname", Message: "firstname is required"})
	} else if len(r.Firstname) > MaxPanelistNameLength {
		errors = append(errors, FieldError{Field: "firstname", Message: "firstname must be 100 characters or less"})
	}
	if r.Lastname == "" {
		errors = append(errors, FieldError{Field: "lastname", Message: "lastname is required"})
	} else if len(r.Lastname) > MaxPanelistNameLength {
		errors = append(errors, FieldError{Field: "lastname", Message: "lastname must be 100 characters or less"})
	}
	if r.Email == "" {
		errors = append(errors, FieldError{Field: "email", Message: "email is required"})
	} else if !IsValidEmail(r.Email) {
		errors = append(errors, FieldError{Field: "email", Message: "email is not a valid address"})
	}
	if len(r.Bibliography) > MaxPanelistBibliographyLength {
		errors = append(errors, FieldError{Field: "bibliography", Message: "bibliography must be 10000 characters or less"})
	}

	return errors
}

// IsValidEmail performs a basic structural check of an email address
func IsValidEmail(email string) bool {
	if email == "" || len(email) > MaxPanelistEmailLength {
		return false
	}
	atIndex := strings.Index(email, "@")
	if atIndex < 1 || strings.Count(email, "@") != 1 {
		return false
	}
	dotIndex := strings.LastIndex(email, ".")
	if dotIndex < atIndex+2 || dotIndex == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n")
}
