package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"
)

// EnrollmentStore is the in-memory course enrollment store
type EnrollmentStore struct {
	s *Store
}

// Enroll enrols a user in a course with the given role and grants that role
// in the course context. Enrolling an already enrolled user reactivates the
// enrollment.
func (e *EnrollmentStore) Enroll(_ context.Context, userID, courseID, roleID string) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if _, ok := e.s.courses[courseID]; !ok {
		return fmt.Errorf("%w: course %s", database.ErrNotFound, courseID)
	}
	if err := e.s.assignLocked(userID, model.ContextCourse, courseID, roleID); err != nil {
		return err
	}

	for _, en := range e.s.enrollments {
		if en.UserID == userID && en.CourseID == courseID {
			en.RoleID = roleID
			en.Status = model.EnrollmentStatusActive
			return nil
		}
	}
	en := &model.Enrollment{
		ID:        e.s.nextID("enrollment"),
		UserID:    userID,
		CourseID:  courseID,
		RoleID:    roleID,
		Status:    model.EnrollmentStatusActive,
		CreatedOn: e.s.now(),
	}
	e.s.enrollments[en.ID] = en
	return nil
}

// RevokeAll removes every enrollment held by a user
func (e *EnrollmentStore) RevokeAll(_ context.Context, userID string) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	for id, en := range e.s.enrollments {
		if en.UserID == userID {
			delete(e.s.enrollments, id)
		}
	}
	return nil
}

// ListByUser returns the enrollments held by a user
func (e *EnrollmentStore) ListByUser(_ context.Context, userID string) ([]*model.Enrollment, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()

	var out []*model.Enrollment
	for _, en := range e.s.enrollments {
		if en.UserID == userID {
			c := *en
			out = append(out, &c)
		}
	}
	sortByCreated(out, func(x *model.Enrollment) time.Time { return x.CreatedOn }, func(x *model.Enrollment) string { return x.ID })
	return out, nil
}
