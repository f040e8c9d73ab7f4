// Package errors turns service and transport errors into the JSON failure
// envelope of the API:
//
//	{"success": false, "error": {"message": "...", "code": "NOT_FOUND"}, "timestamp": "..."}
//
// ErrorHandler is the single place where errors become status codes.
// Validation errors from the services map to 400, missing arrondissements or
// columns to 404 and an unreadable gold file to 503.
package errors
