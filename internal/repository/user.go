package repository

import (
	"context"
	"fmt"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"
)

// UserRepository handles platform user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		CREATE user CONTENT {
			username: $username,
			email: $email,
			firstname: $firstname,
			lastname: $lastname,
			auth: $auth,
			hash: IF $hash IS NOT NULL THEN $hash ELSE NONE END,
			confirmed: $confirmed,
			deleted: false,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"username":  user.Username,
		"email":     user.Email,
		"firstname": user.Firstname,
		"lastname":  user.Lastname,
		"auth":      user.Auth,
		"hash":      ptrToNone(user.Hash),
		"confirmed": user.Confirmed,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: username already exists", database.ErrDuplicate)
		}
		return err
	}

	data, err := firstRecord(result)
	if err != nil {
		return err
	}
	created, err := decodeRecord[model.User](data)
	if err != nil {
		return err
	}
	user.ID = created.ID
	user.CreatedOn = created.CreatedOn
	user.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a user by ID, deactivated or not
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	user, err := getOne[model.User](result, err)
	if err != nil || user == nil {
		return user, err
	}

	// Hash is skipped by JSON decoding
	if data, ok := result.(map[string]interface{}); ok {
		if h, ok := data["hash"].(string); ok {
			user.Hash = &h
		}
	}
	return user, nil
}

// Deactivate marks a user as deleted and keeps the record
func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: user %s", database.ErrNotFound, id)
	}
	if existing.Deleted {
		return nil
	}

	query := `UPDATE type::record($id) SET deleted = true, updated_on = time::now()`
	vars := map[string]interface{}{"id": id}
	return r.db.Execute(ctx, query, vars)
}

// ptrToNone converts an optional string to a value the CONTENT templates test against NULL
func ptrToNone(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
