// Package handler provides the HTTP endpoints of the concordance API.
//
// Handlers decode the request, call a service and write the result with the
// helpers in response.go. Service errors go through MapServiceError and are
// returned as RFC 9457 Problem Details.
//
// # Routes
//
//	POST   /v1/concordances/{concordanceId}/panelists  register a panelist
//	GET    /v1/concordances/{concordanceId}/panelists  list panelists
//	GET    /v1/panelists/{panelistId}                  get a panelist
//	POST   /v1/panelists/{panelistId}/provision        retry account provisioning
//	DELETE /v1/panelists/{panelistId}                  remove a panelist
//	GET    /health                                     liveness and store check
//
// Registering a panelist whose account provisioning fails answers 202 with
// the kept record, its provision link and the problem that stopped it.
package handler
