package service

import (
	"context"

	"github.com/concordance/api/internal/model"
)

// SystemRoleSource supplies the role granted to panelist accounts in the
// system context. It is consulted on every provisioning call so a changed
// setting applies to the next panelist without a restart.
type SystemRoleSource interface {
	PanelistsSystemRole(ctx context.Context) (string, error)
}

// StaticSystemRole is a SystemRoleSource fixed at construction, typically
// from the PANELISTS_SYSTEM_ROLE environment variable
type StaticSystemRole string

// PanelistsSystemRole returns the configured role ID, or model.NoSystemRole
func (s StaticSystemRole) PanelistsSystemRole(context.Context) (string, error) {
	return model.NormalizeSystemRole(string(s)), nil
}
