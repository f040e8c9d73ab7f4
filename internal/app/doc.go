// Package app wires the dashboard API together: configuration, logging,
// OpenTelemetry, the gold dataset services, the chi router and the HTTP
// server lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from .env, environment and config.yaml
//  2. Initialize the slog logger and OpenTelemetry providers
//  3. Resolve the data paths and create missing directories
//  4. Build the dataset services around one cached DashboardService
//  5. Mount the /api routes, /metrics and the /app front end
//
// # Usage
//
//	application, err := app.NewApplication(frontendFS)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM and then shuts the server down within
// the configured shutdown timeout.
package app
