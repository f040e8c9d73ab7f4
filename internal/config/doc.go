// Package config provides centralized configuration management for the dashboard.
// It loads configuration from several sources, validates it, and resolves the
// bronze/silver/gold data layout used by both the ETL and the API.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority), optionally seeded from a .env file
//	2. YAML configuration file (config.yaml or configs/config.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PARISDASH_* for namespacing:
//
//	PARISDASH_SERVER_PORT=8080
//	PARISDASH_PATHS_DATA_DIR=/srv/dashboard/data
//	PARISDASH_CACHE_TTL=300s
//	PARISDASH_PUBLISH_BUCKET=dashboard-gold
//
// # Path Management
//
// Paths derives every pipeline location from the data directory:
//
//	paths := cfg.GetPaths()
//	raw := paths.BronzePath(config.TransitFileName)
//	gold := paths.GoldFile
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
