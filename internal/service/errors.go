package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable. Store failures are not
// listed: they are returned to the caller as the store produced them.

// ===== Provisioning Errors =====
var (
	ErrAlreadyProvisioned = errors.New("panelist already has a platform account")
	ErrIdentityNotFound   = errors.New("platform account not found")
	ErrInvalidSystemRole  = errors.New("panelist system role is not a known role")
)

// ===== Panelist Errors =====
var (
	ErrPanelistNotFound    = errors.New("panelist not found")
	ErrConcordanceNotFound = errors.New("concordance not found")
	ErrRoleNotFound        = errors.New("role not found")
	ErrInvalidPanelist     = errors.New("invalid panelist")
)
