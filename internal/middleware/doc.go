// Package middleware provides the HTTP middleware of the concordance API.
//
// Middleware is applied with Chain, outermost first:
//
//	middleware.Chain(mux,
//		middleware.RequestID,
//		middleware.Logger,
//		middleware.Recovery,
//		middleware.Idempotency(store),
//		middleware.Metrics(reg),
//	)
//
// Metrics labels requests by the route pattern the ServeMux matched, so it
// must wrap the mux directly.
//
// Idempotency replays the response of a POST repeated with the same
// Idempotency-Key header, which keeps a retried panelist registration from
// creating a second panelist.
package middleware
