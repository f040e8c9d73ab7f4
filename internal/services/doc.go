// Package services implements the business logic of the dashboard API. It
// sits between the HTTP handlers and the gold dataset so that lookups,
// validation and derived indicators stay testable without a server.
//
// # Dataset access
//
// DashboardService owns the gold table. The table is read once and kept in a
// TTLCache; after the TTL expires the next request reads the file again so a
// new ETL run is served without restarting. Concurrent reloads are collapsed
// with singleflight.
//
// The resource services (PrixService, LogementService, TransportService,
// PollutionService, StatsService) depend only on the DatasetProvider
// interface:
//
//	dash := services.NewDashboardService(cfg, metrics, logger)
//	prix := services.NewPrixService(dash, logger)
//	evo, err := prix.Evolution(ctx, 11, 2020, 2024, dataset.TypePrixM2)
//
// # Errors
//
// Input problems are returned as *ValidationError, missing resources as
// *NotFoundError and an unreadable gold file as ErrDatasetUnavailable. All of
// them match their sentinel with errors.Is, which is what the HTTP error
// handler uses to pick a status code.
package services
