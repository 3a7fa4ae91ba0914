package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"
)

// EnrollmentRepository handles course enrollments
type EnrollmentRepository struct {
	db database.Database
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db database.Database) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll enrols a user in a course with the given role and grants that role
// in the course context, in one transaction. Enrolling an already enrolled
// user reactivates the enrollment.
func (r *EnrollmentRepository) Enroll(ctx context.Context, userID, courseID, roleID string) error {
	_, err := r.db.QueryOne(ctx, `SELECT id FROM type::record($id)`, map[string]interface{}{"id": courseID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: course %s", database.ErrNotFound, courseID)
		}
		return err
	}

	tb := database.NewTxBuilder()
	tb.Add(`
		UPSERT enrollment SET
			user = type::record($user_id),
			course = type::record($course_id),
			role = type::record($role_id),
			status = 'active'
		WHERE user = type::record($user_id) AND course = type::record($course_id)
	`, map[string]interface{}{
		"user_id":   userID,
		"course_id": courseID,
		"role_id":   roleID,
	})
	addAssign(tb, userID, model.ContextCourse, courseID, roleID)
	return database.ExecuteTx(ctx, r.db, tb)
}

// RevokeAll removes every enrollment held by a user
func (r *EnrollmentRepository) RevokeAll(ctx context.Context, userID string) error {
	query := `DELETE enrollment WHERE user = type::record($user_id)`
	vars := map[string]interface{}{"user_id": userID}
	return r.db.Execute(ctx, query, vars)
}

// ListByUser returns the enrollments held by a user
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]*model.Enrollment, error) {
	query := `
		SELECT id, user AS user_id, course AS course_id, role AS role_id, status, created_on
		FROM enrollment WHERE user = type::record($user_id) ORDER BY created_on
	`
	vars := map[string]interface{}{"user_id": userID}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeRecords[model.Enrollment](results, "user_id", "course_id", "role_id")
}
