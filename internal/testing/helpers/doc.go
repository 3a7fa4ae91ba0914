// Package helpers provides HTTP and database assertions shared by the
// handler and repository tests.
//
//	rr := helpers.NewRequest(t, http.MethodPost, "/v1/concordances/concordance:1/panelists").
//		WithBody(req).
//		WithIdempotencyKey("k1").
//		Serve(mux)
//	helpers.AssertValidationError(t, rr, "email")
//
// The database assertions run against a live SurrealDB from testdb.
package helpers
