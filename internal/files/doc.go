// Package files locates and decodes the raw source files of the pipeline.
//
// Discovery lists the files of a data directory: CSV and Excel files, glob
// matches and the yearly DVF extracts (75_2020.csv, 75_2021.csv, ...) whose
// year is read from the file name.
//
// ReadText returns the content of a file as UTF-8. The open-data portals
// publish some files in legacy code pages (CP437 for the social housing
// export, Windows-1252 for the arrondissement surfaces, Latin-1 for some
// RATP extracts), so the caller names the encoding or asks for AutoDetect,
// which keeps valid UTF-8 and falls back to Latin-1 otherwise.
//
//	discovery := files.NewDiscovery(paths.BronzeDir)
//	years, err := discovery.FindYearFiles(paths.BronzeDir, "75_*.csv")
//	text, err := files.ReadText(path, files.CP437)
package files
