// Package warehouse stores the silver and gold layers in a single SQLite
// file so they can be queried with SQL.
//
// The schema is applied from embedded migrations when the store is opened.
// Rebuild replaces the content of every table, one transaction per table:
//
//	fact_transactions     cleaned DVF sales, one row per source line
//	fact_lots             lot surfaces (Carrez) per mutation
//	dim_stats_commune     yearly commune aggregates
//	dim_qualite_air       daily measurements per arrondissement
//	dim_transports        stations, traffic and lines per arrondissement
//	gold_arrondissements  the gold file in long format
package warehouse
