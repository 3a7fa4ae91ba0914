// Package fixtures provides test data factories for repository tests.
//
// Each factory method creates a record with sensible defaults, allows
// customization through option functions, and returns the populated model.
//
// Usage:
//
//	f := fixtures.New(tdb.DB)
//	concordance := f.CreateConcordance(t)
//	panelist := f.CreatePanelist(t, concordance)
package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// Factory creates test entities in the database
type Factory struct {
	db database.Database
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{db: db}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx() context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	_ = cancel
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Username string
	Email    string
	Password string
	Deleted  bool
}

// CreateUser creates a confirmed manual-auth user
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		Username: fmt.Sprintf("user_%s", randomID()),
		Email:    fmt.Sprintf("user_%s@test.local", randomID()),
		Password: "testpass123",
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}

	query := `
		CREATE user CONTENT {
			username: $username,
			email: $email,
			firstname: 'Test',
			lastname: 'User',
			auth: 'manual',
			hash: $hash,
			confirmed: true,
			deleted: $deleted
		}
	`
	vars := map[string]interface{}{
		"username": o.Username,
		"email":    o.Email,
		"hash":     string(hash),
		"deleted":  o.Deleted,
	}

	results, err := f.db.Query(ctx(), query, vars)
	if err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}

	data := extractFirstResult(t, results)
	return &model.User{
		ID:        getString(data, "id"),
		Username:  getString(data, "username"),
		Email:     getString(data, "email"),
		Firstname: getString(data, "firstname"),
		Lastname:  getString(data, "lastname"),
		Auth:      getString(data, "auth"),
		Confirmed: getBool(data, "confirmed"),
		Deleted:   getBool(data, "deleted"),
	}
}

// ============================================================================
// Course and Concordance Fixtures
// ============================================================================

// CreateCourse creates a course
func (f *Factory) CreateCourse(t *testing.T) *model.Course {
	t.Helper()

	shortname := fmt.Sprintf("C-%s", randomID())
	results, err := f.db.Query(ctx(), `CREATE course CONTENT { shortname: $shortname, fullname: $fullname }`,
		map[string]interface{}{
			"shortname": shortname,
			"fullname":  "Course " + shortname,
		})
	if err != nil {
		t.Fatalf("fixtures: failed to create course: %v", err)
	}

	data := extractFirstResult(t, results)
	return &model.Course{
		ID:        getString(data, "id"),
		Shortname: getString(data, "shortname"),
		Fullname:  getString(data, "fullname"),
	}
}

// CreateConcordance creates a concordance together with its owning course
// and the generated course panelists are enrolled in
func (f *Factory) CreateConcordance(t *testing.T) *model.Concordance {
	t.Helper()

	course := f.CreateCourse(t)
	generated := f.CreateCourse(t)

	query := `
		CREATE concordance CONTENT {
			name: $name,
			course: type::record($course),
			course_generated: type::record($generated)
		}
	`
	results, err := f.db.Query(ctx(), query, map[string]interface{}{
		"name":      fmt.Sprintf("Concordance %s", randomID()),
		"course":    course.ID,
		"generated": generated.ID,
	})
	if err != nil {
		t.Fatalf("fixtures: failed to create concordance: %v", err)
	}

	data := extractFirstResult(t, results)
	return &model.Concordance{
		ID:              getString(data, "id"),
		Name:            getString(data, "name"),
		CourseID:        course.ID,
		CourseGenerated: generated.ID,
	}
}

// ============================================================================
// Panelist Fixtures
// ============================================================================

// CreatePanelist creates a panelist without a user account
func (f *Factory) CreatePanelist(t *testing.T, concordance *model.Concordance) *model.Panelist {
	t.Helper()

	query := `
		CREATE panelist CONTENT {
			concordance: type::record($concordance),
			firstname: 'Ada',
			lastname: 'Lovelace',
			email: $email
		}
	`
	email := fmt.Sprintf("panelist_%s@test.local", randomID())
	results, err := f.db.Query(ctx(), query, map[string]interface{}{
		"concordance": concordance.ID,
		"email":       email,
	})
	if err != nil {
		t.Fatalf("fixtures: failed to create panelist: %v", err)
	}

	data := extractFirstResult(t, results)
	return &model.Panelist{
		ID:            getString(data, "id"),
		ConcordanceID: concordance.ID,
		Firstname:     getString(data, "firstname"),
		Lastname:      getString(data, "lastname"),
		Email:         getString(data, "email"),
	}
}

// ============================================================================
// Data Extraction Helpers
// ============================================================================

func extractFirstResult(t *testing.T, results []interface{}) map[string]interface{} {
	t.Helper()
	if len(results) == 0 {
		t.Fatal("fixtures: no results returned")
	}

	resp, ok := results[0].(map[string]interface{})
	if !ok {
		t.Fatalf("fixtures: unexpected result type: %T", results[0])
	}

	result, ok := resp["result"]
	if !ok {
		t.Fatal("fixtures: no result in response")
	}

	if arr, ok := result.([]interface{}); ok {
		if len(arr) == 0 {
			t.Fatal("fixtures: empty result array")
		}
		data, ok := arr[0].(map[string]interface{})
		if !ok {
			t.Fatalf("fixtures: unexpected array item type: %T", arr[0])
		}
		return data
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("fixtures: unexpected result type: %T", result)
	}
	return data
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	if v := data[key]; v != nil {
		if m, ok := v.(map[string]interface{}); ok {
			if tb, ok := m["tb"].(string); ok {
				if id := m["id"]; id != nil {
					return fmt.Sprintf("%s:%v", tb, id)
				}
			}
		}
		// Record IDs print as "{table id}"
		s := fmt.Sprintf("%v", v)
		if len(s) > 2 && s[0] == '{' && s[len(s)-1] == '}' {
			inner := s[1 : len(s)-1]
			for i, c := range inner {
				if c == ' ' {
					return inner[:i] + ":" + inner[i+1:]
				}
			}
		}
		return s
	}
	return ""
}

func getBool(data map[string]interface{}, key string) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return false
}
