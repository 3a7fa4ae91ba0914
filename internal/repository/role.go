package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"
)

const assignmentFields = `id, user AS user_id, role AS role_id, context_kind, context_instance, created_on`

// RoleRepository handles roles and role assignments
type RoleRepository struct {
	db database.Database
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db database.Database) *RoleRepository {
	return &RoleRepository{db: db}
}

// GetByID retrieves a role by ID
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*model.Role, error) {
	id = model.RoleRecordID(id)
	if !strings.HasPrefix(id, "role:") {
		return nil, nil
	}
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	return getOne[model.Role](result, err)
}

// GetByShortname retrieves a role by shortname
func (r *RoleRepository) GetByShortname(ctx context.Context, shortname string) (*model.Role, error) {
	query := `SELECT * FROM role WHERE shortname = $shortname LIMIT 1`
	vars := map[string]interface{}{"shortname": shortname}

	result, err := r.db.QueryOne(ctx, query, vars)
	return getOne[model.Role](result, err)
}

// List returns every role ordered by ID
func (r *RoleRepository) List(ctx context.Context) ([]*model.Role, error) {
	results, err := r.db.Query(ctx, `SELECT * FROM role ORDER BY id`, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecords[model.Role](results)
}

// Assign grants a role to a user in a context. Granting an existing
// assignment again is a no-op.
func (r *RoleRepository) Assign(ctx context.Context, userID string, kind model.ContextKind, instance, roleID string) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: unknown context kind %q", database.ErrQuery, kind)
	}
	if kind == model.ContextSystem {
		instance = ""
	}
	tb := database.NewTxBuilder()
	addAssign(tb, userID, kind, instance, roleID)
	return database.ExecuteTx(ctx, r.db, tb)
}

// addAssign appends an idempotent role assignment to a transaction
func addAssign(tb *database.TxBuilder, userID string, kind model.ContextKind, instance, roleID string) {
	tb.Add(`
		UPSERT role_assignment SET
			user = type::record($user_id),
			role = type::record($role_id),
			context_kind = $kind,
			context_instance = $instance
		WHERE user = type::record($user_id)
			AND role = type::record($role_id)
			AND context_kind = $kind
			AND context_instance = $instance
	`, map[string]interface{}{
		"user_id":  userID,
		"role_id":  roleID,
		"kind":     string(kind),
		"instance": instance,
	})
}

// Revoke removes a single role assignment if present
func (r *RoleRepository) Revoke(ctx context.Context, userID string, kind model.ContextKind, instance, roleID string) error {
	if kind == model.ContextSystem {
		instance = ""
	}
	query := `
		DELETE role_assignment
		WHERE user = type::record($user_id)
			AND role = type::record($role_id)
			AND context_kind = $kind
			AND context_instance = $instance
	`
	vars := map[string]interface{}{
		"user_id":  userID,
		"role_id":  roleID,
		"kind":     string(kind),
		"instance": instance,
	}
	return r.db.Execute(ctx, query, vars)
}

// RevokeAll removes every role assignment held by a user, in any context
func (r *RoleRepository) RevokeAll(ctx context.Context, userID string) error {
	query := `DELETE role_assignment WHERE user = type::record($user_id)`
	vars := map[string]interface{}{"user_id": userID}
	return r.db.Execute(ctx, query, vars)
}

// ListRoles returns the roles a user holds in a context
func (r *RoleRepository) ListRoles(ctx context.Context, kind model.ContextKind, instance, userID string) ([]*model.Role, error) {
	if kind == model.ContextSystem {
		instance = ""
	}
	query := `
		SELECT * FROM role WHERE id IN (
			SELECT VALUE role FROM role_assignment
			WHERE user = type::record($user_id)
				AND context_kind = $kind
				AND context_instance = $instance
		) ORDER BY id
	`
	vars := map[string]interface{}{
		"user_id":  userID,
		"kind":     string(kind),
		"instance": instance,
	}
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeRecords[model.Role](results)
}

// ListAssignments returns every role assignment held by a user
func (r *RoleRepository) ListAssignments(ctx context.Context, userID string) ([]*model.RoleAssignment, error) {
	query := `SELECT ` + assignmentFields + ` FROM role_assignment WHERE user = type::record($user_id) ORDER BY created_on`
	vars := map[string]interface{}{"user_id": userID}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeRecords[model.RoleAssignment](results, "user_id", "role_id")
}
