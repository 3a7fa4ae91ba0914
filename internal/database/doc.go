// Package database provides SurrealDB connectivity for the concordance API.
//
// The Database interface has three query methods:
//   - Query: one {status, result} entry per statement
//   - QueryOne: the first record of the first statement, or ErrNotFound
//   - Execute: no result, for mutations
//
// Statements that must land together are combined with a TxBuilder, which
// wraps them in BEGIN/COMMIT TRANSACTION and namespaces their variables.
//
// # Errors
//
//   - ErrNotFound: record does not exist
//   - ErrDuplicate: unique index violation
//   - ErrConnection: connect, sign-in or namespace selection failed
//   - ErrQuery: statement failed
//
// Repositories wrap these with fmt.Errorf("%w: ...") so callers match them
// with errors.Is.
package database
