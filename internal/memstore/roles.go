package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"
)

// RoleStore is the in-memory role and role assignment store
type RoleStore struct {
	s *Store
}

// GetByID retrieves a role by ID
func (r *RoleStore) GetByID(_ context.Context, id string) (*model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roles[model.RoleRecordID(id)]
	if !ok {
		return nil, nil
	}
	out := *role
	return &out, nil
}

// GetByShortname retrieves a role by shortname
func (r *RoleStore) GetByShortname(_ context.Context, shortname string) (*model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, role := range r.s.roles {
		if role.Shortname == shortname {
			out := *role
			return &out, nil
		}
	}
	return nil, nil
}

// List returns every role ordered by ID
func (r *RoleStore) List(_ context.Context) ([]*model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	roles := make([]*model.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out := *role
		roles = append(roles, &out)
	}
	sortRoles(roles)
	return roles, nil
}

// Assign grants a role to a user in a context. Granting an existing
// assignment again is a no-op.
func (r *RoleStore) Assign(_ context.Context, userID string, kind model.ContextKind, instance, roleID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.assignLocked(userID, kind, instance, roleID)
}

func (s *Store) assignLocked(userID string, kind model.ContextKind, instance, roleID string) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: unknown context kind %q", database.ErrQuery, kind)
	}
	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("%w: user %s", database.ErrNotFound, userID)
	}
	if _, ok := s.roles[roleID]; !ok {
		return fmt.Errorf("%w: role %s", database.ErrNotFound, roleID)
	}
	if kind == model.ContextSystem {
		instance = ""
	}
	for _, a := range s.assignments {
		if a.UserID == userID && a.RoleID == roleID && a.ContextKind == kind && a.ContextInstance == instance {
			return nil
		}
	}
	a := &model.RoleAssignment{
		ID:              s.nextID("role_assignment"),
		UserID:          userID,
		RoleID:          roleID,
		ContextKind:     kind,
		ContextInstance: instance,
		CreatedOn:       s.now(),
	}
	s.assignments[a.ID] = a
	return nil
}

// Revoke removes a single role assignment if present
func (r *RoleStore) Revoke(_ context.Context, userID string, kind model.ContextKind, instance, roleID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if kind == model.ContextSystem {
		instance = ""
	}
	for id, a := range r.s.assignments {
		if a.UserID == userID && a.RoleID == roleID && a.ContextKind == kind && a.ContextInstance == instance {
			delete(r.s.assignments, id)
		}
	}
	return nil
}

// RevokeAll removes every role assignment held by a user, in any context
func (r *RoleStore) RevokeAll(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, a := range r.s.assignments {
		if a.UserID == userID {
			delete(r.s.assignments, id)
		}
	}
	return nil
}

// ListRoles returns the roles a user holds in a context
func (r *RoleStore) ListRoles(_ context.Context, kind model.ContextKind, instance, userID string) ([]*model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if kind == model.ContextSystem {
		instance = ""
	}
	var roles []*model.Role
	for _, a := range r.s.assignments {
		if a.UserID != userID || a.ContextKind != kind || a.ContextInstance != instance {
			continue
		}
		if role, ok := r.s.roles[a.RoleID]; ok {
			out := *role
			roles = append(roles, &out)
		}
	}
	sortRoles(roles)
	return roles, nil
}

// ListAssignments returns every role assignment held by a user
func (r *RoleStore) ListAssignments(_ context.Context, userID string) ([]*model.RoleAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.RoleAssignment
	for _, a := range r.s.assignments {
		if a.UserID == userID {
			c := *a
			out = append(out, &c)
		}
	}
	sortByCreated(out, func(x *model.RoleAssignment) time.Time { return x.CreatedOn }, func(x *model.RoleAssignment) string { return x.ID })
	return out, nil
}

func sortRoles(roles []*model.Role) {
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
}
