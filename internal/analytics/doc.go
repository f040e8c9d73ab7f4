// Package analytics holds the pure calculations behind the dashboard: price
// evolutions and trends, air quality indexes, transit accessibility scores,
// housing mix indicators and descriptive statistics.
//
// Every function is deterministic and free of I/O so that the ETL and the
// API share the same rules. Missing inputs are modelled with nil pointers
// and produce "Indéterminé" style labels instead of errors.
package analytics
