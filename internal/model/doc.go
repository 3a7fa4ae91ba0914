// Package model defines domain entities and data structures for the
// concordance panelist service.
//
// # Domain Entities
//
//   - Panelist: external reviewer attached to a concordance activity
//   - User: platform account backing a panelist
//   - Concordance: the activity owning panelists, with its generated course
//   - Role, RoleAssignment: named roles granted in the system or a course context
//   - Enrollment: a user's role-bearing membership of a course
//   - Setting: plugin configuration value
//
// # IDs
//
// IDs are SurrealDB record IDs ("panelist:42"). RecordKey strips the table
// prefix when only the key is meaningful, e.g. for panelist account names.
//
// # Errors
//
// ProblemDetails implements RFC 9457 and is what handlers write on failure.
package model
