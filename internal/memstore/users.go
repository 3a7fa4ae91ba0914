package memstore

import (
	"context"
	"fmt"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"
)

// UserStore is the in-memory platform user store
type UserStore struct {
	s *Store
}

// Create stores a new user and fills in its ID and timestamps
func (u *UserStore) Create(_ context.Context, user *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, existing := range u.s.users {
		if existing.Username == user.Username {
			return fmt.Errorf("%w: username already exists", database.ErrDuplicate)
		}
	}

	user.ID = u.s.nextID("user")
	user.CreatedOn = u.s.now()
	user.UpdatedOn = user.CreatedOn
	stored := *user
	u.s.users[stored.ID] = &stored
	return nil
}

// GetByID retrieves a user by ID, deactivated or not
func (u *UserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, nil
	}
	out := *user
	return &out, nil
}

// Deactivate marks a user as deleted. The record itself is kept.
func (u *UserStore) Deactivate(_ context.Context, id string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	user, ok := u.s.users[id]
	if !ok {
		return fmt.Errorf("%w: user %s", database.ErrNotFound, id)
	}
	if !user.Deleted {
		user.Deleted = true
		user.UpdatedOn = u.s.now()
	}
	return nil
}
