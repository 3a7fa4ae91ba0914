// Package repository implements the SurrealDB data access layer of the
// concordance API.
//
// Each repository wraps a database.Database and serves one table:
//
//   - UserRepository: platform accounts (user)
//   - EnrollmentRepository: course enrollments (enrollment)
//   - RoleRepository: roles and their assignments (role, role_assignment)
//   - PanelistRepository: concordance panelists (panelist)
//   - ConcordanceRepository: concordance activities (concordance)
//   - SettingsRepository: plugin settings (config_plugins)
//
// # Conventions
//
//   - Get methods return (nil, nil) when the record does not exist
//   - Mutations on a missing record return database.ErrNotFound
//   - Unique index violations return database.ErrDuplicate
//   - Record links are exposed as "table:id" strings
//   - Statements that must apply together go through database.TxBuilder
package repository
