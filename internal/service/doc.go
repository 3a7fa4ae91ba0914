// Package service implements panelist provisioning.
//
// PanelistManager keeps a panelist's platform account in step with the
// panelist record. OnPanelistCreated creates a confirmed account named
// "Panelist-<key>", enrols it as a student in the concordance's course and
// grants the configured system role. OnPanelistDeleted deactivates the
// account and revokes its enrollments and role assignments.
//
// PanelistService is the panelist-management flow on top of it: it validates
// and stores panelist records and calls the manager.
//
// # Store Interfaces
//
// Services define the store interfaces they need (IdentityStore,
// EnrollmentStore, RoleStore, PanelistStore, ConcordanceStore). The
// repository package implements them on SurrealDB and memstore in memory.
//
// # System Role
//
// The system role comes from a SystemRoleSource read on every provisioning
// call: StaticSystemRole from the environment or the panelistsSystemRole
// plugin setting. An empty value or "0" grants no system role.
//
// # Errors
//
// Service errors are sentinels in errors.go. Store errors are returned
// unchanged so callers can match database.ErrNotFound and friends.
package service
