// Package http implements the read-only REST handlers of the dashboard API.
//
// Handlers stay thin. They parse path and query parameters, delegate to the
// services package and write the result in one of two envelopes:
//
//	{"success": true, "data": ..., "timestamp": "...", "message": "...", "metadata": {...}}
//	{"success": false, "error": {"message": "...", "code": "...", "details": ...}, "timestamp": "..."}
//
// Query parameters are bound through middleware.QueryValidator, which reports
// rejected values as VALIDATION_ERROR with French messages. Domain checks such
// as the arrondissement range or the price type live in the services so that
// every endpoint reports them the same way.
//
// Each resource handler exposes Routes, a chi.Router meant to be mounted
// under /api/<resource>:
//
//	r.Mount("/api/arrondissements", NewArrondissementHandler(...).Routes())
//	r.Mount("/api/prix", NewPrixHandler(...).Routes())
package http
