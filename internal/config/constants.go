package config

import "time"

// Application constants for the Paris real-estate dashboard
const (
	AppName    = "Dashboard Immobilier Paris"
	AppVersion = "1.0.0"
	APIVersion = "v1"

	// Environments
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Timeouts
	DefaultRequestTimeout = 30 * time.Second
	DefaultStepTimeout    = 30 * time.Minute

	// Cache
	DefaultCacheTTL = 300 * time.Second

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100

	// File layout (relative to the data directory)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultWebDir     = "web"
	BronzeDirName     = "bronze"
	SilverDirName     = "silver"
	GoldDirName       = "gold"
	WarehouseDirName  = "warehouse"
	GoldFileName      = "dashboard_arrondissements_paris.csv"
	WarehouseFileName = "dashboard.db"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Bronze source file names as published by the open-data portals.
const (
	TransitFileName         = "trafic-annuel-entrant-par-station-du-reseau-ferre-2021.csv"
	AirQualityFileName      = "air_quality_paris.csv"
	CommuneStatsFileName    = "2014_2020_donnees-valeurs-foncieres-a-la-commune.csv"
	PopulationFileName      = "recensement_pop_paris_insee_2022.xlsx"
	RevenueFileName         = "BASE_TD_FILO_DEC_IRIS_2018.xlsx"
	SurfaceFileName         = "arrondissements_paris.csv"
	SocialHousingFileName   = "logements-sociaux-dans-les-communes_IDF.csv"
	DVFFilePattern          = "75_*.csv"
	CleanSuffix             = "_clean.csv"
	LotsSuffix              = "_lots.csv"
	TransitSilverName       = "transport_par_arrondissement.csv"
	AirQualitySilverName    = "air_quality_paris_clean.csv"
	CommuneStatsSilverName  = "stats_commune_clean.csv"
	DemographicsSilverName  = "demographie_paris.csv"
	SocialHousingSilverName = "logements_sociaux_paris.csv"
)

// Gold tables written beside the dashboard file.
const (
	AirGoldAnnualName      = "air_quality_paris_gold_annual.csv"
	AirGoldMonthlyName     = "air_quality_paris_gold_monthly.csv"
	TransactionsName       = "transactions_paris_2020_2025.csv"
	TransactionsScaledName = "transactions_paris_2020_2025_scaled.csv"
)

// Domain ranges
const (
	MinArrondissement = 1
	MaxArrondissement = 20
	FirstYear         = 2020
	LastYear          = 2025
	DefaultYear       = 2024
)

// Error messages
const (
	ErrMsgDatasetUnavailable = "Service unhealthy - vérifiez que le fichier CSV Gold existe"
	ErrMsgNotFound           = "Ressource non trouvée"
	ErrMsgMethodNotAllowed   = "Méthode HTTP non autorisée"
	ErrMsgInternal           = "Erreur interne du serveur"
)
