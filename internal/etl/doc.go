// Package etl holds the transformations of the data pipeline.
//
// Bronze files are read into a Table, a string-celled CSV table, and turned
// into silver tables by pure functions (CleanDVF, BuildLots, AggregateTransit,
// CleanAirQuality, CleanCommuneStats, BuildDemographics, BuildSocialHousing).
// BuildGold aggregates the silver layer into one row per arrondissement.
//
// Processor binds these functions to the data directories and is what the
// pipeline steps call.
package etl
