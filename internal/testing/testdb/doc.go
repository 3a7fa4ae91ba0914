// Package testdb provides isolated SurrealDB databases for repository tests.
//
// # Setup
//
// Each call to New selects a fresh namespace and applies the numbered
// migrations, which also seed the standard roles:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    roles := repository.NewRoleRepository(tdb.DB)
//
//	    student, err := roles.GetByShortname(tdb.Ctx(), model.RoleStudent)
//	}
//
// The namespace is removed when the test finishes. Calling Close earlier is
// allowed.
//
// # Configuration
//
// TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER and TEST_DB_PASSWORD locate the
// instance. Tests skip when it is unreachable; CI sets TEST_DB_REQUIRED so
// they fail instead. TEST_DB_MIGRATIONS overrides the migrations directory,
// which is otherwise found next to go.mod.
package testdb
