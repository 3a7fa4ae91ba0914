package model

import (
	"strings"
	"time"
)

// Standard role shortnames seeded by the migrations
const (
	RoleManager        = "manager"
	RoleCourseCreator  = "coursecreator"
	RoleEditingTeacher = "editingteacher"
	RoleTeacher        = "teacher"
	RoleStudent        = "student"
	RoleGuest          = "guest"
	RoleUser           = "user"
)

// Role is a named set of capabilities that can be granted in a context
type Role struct {
	ID        string `json:"id"`
	Shortname string `json:"shortname"`
	Name      string `json:"name"`
	Archetype string `json:"archetype,omitempty"`
}

// ContextKind identifies the level at which a role is granted
type ContextKind string

const (
	ContextSystem ContextKind = "system"
	ContextCourse ContextKind = "course"
)

// IsValid returns true if the kind is a known context level
func (k ContextKind) IsValid() bool {
	switch k {
	case ContextSystem, ContextCourse:
		return true
	default:
		return false
	}
}

// RoleAssignment grants a role to a user in a context.
// ContextInstance is empty for the system context and the course ID otherwise.
type RoleAssignment struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	RoleID          string      `json:"role_id"`
	ContextKind     ContextKind `json:"context_kind"`
	ContextInstance string      `json:"context_instance,omitempty"`
	CreatedOn       time.Time   `json:"created_on"`
}

// NoSystemRole disables the system role granted to panelists
const NoSystemRole = ""

// RoleRecordID qualifies a bare role key ("coursecreator", "5") with the
// role table. IDs that already name a table are returned unchanged.
func RoleRecordID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, ":") {
		return id
	}
	return "role:" + id
}

// NormalizeSystemRole maps the "disabled" spellings of the panelist system
// role setting ("", "0") to NoSystemRole
func NormalizeSystemRole(value string) string {
	value = strings.TrimSpace(value)
	if value == "0" {
		return NoSystemRole
	}
	return value
}
