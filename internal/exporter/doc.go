// Package exporter writes the silver and gold CSV files of the pipeline.
//
// Every file is ';'-separated UTF-8 with a BOM so that spreadsheet tools open
// the accented French labels correctly. Relative paths are resolved against
// the data layout of config.Paths:
//
//	w := exporter.NewCSVWriter(paths)
//	err := w.WriteTable("transport_par_arrondissement.csv", header, records) // data/silver/...
//	err = w.WriteTable("gold/dashboard_arrondissements_paris.csv", header, records)
//
// Tables are written to a temporary file and renamed into place.
package exporter
