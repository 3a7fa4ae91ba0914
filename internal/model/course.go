package model

import "time"

// Course is a platform course. The service only reads courses.
type Course struct {
	ID        string    `json:"id"`
	Shortname string    `json:"shortname"`
	Fullname  string    `json:"fullname"`
	CreatedOn time.Time `json:"created_on"`
}

// Concordance is the activity that owns panelists.
// CourseGenerated is the course panelists are enrolled in; CourseID is the
// course the activity itself lives in.
type Concordance struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CourseID        string    `json:"course_id"`
	CourseGenerated string    `json:"course_generated"`
	CreatedOn       time.Time `json:"created_on"`
}

// PanelistCourseID returns the course panelist accounts are enrolled in,
// falling back to the owning course when no course was generated
func (c *Concordance) PanelistCourseID() string {
	if c.CourseGenerated != "" {
		return c.CourseGenerated
	}
	return c.CourseID
}

// EnrollmentStatus represents the state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusSuspended EnrollmentStatus = "suspended"
)

// Enrollment grants a user a role within a course
type Enrollment struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	CourseID  string           `json:"course_id"`
	RoleID    string           `json:"role_id"`
	Status    EnrollmentStatus `json:"status"`
	CreatedOn time.Time        `json:"created_on"`
}

// IsActive returns true if the enrollment is active
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}
