// Package shared holds helpers used by several packages of the dashboard.
//
// The testutil subpackage provides an in-memory slog handler for asserting
// on log output and a builder for small gold CSV files used by the HTTP and
// application tests.
package shared
