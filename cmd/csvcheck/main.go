// Command csvcheck reports missing values and duplicate rows of CSV files.
//
//	csvcheck -sep ';' data/bronze/75_2024.csv data/silver/*.csv
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"

	"parisdash/internal/etl"
	"parisdash/internal/infrastructure"
)

// Report is the JSON document written on stdout
type Report struct {
	Files  []*etl.Diagnosis `json:"files"`
	Errors []FileError      `json:"errors,omitempty"`
}

// FileError is a file that could not be read
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// parseSeparator accepts a single character, "tab" or an empty string to
// sniff the delimiter
func parseSeparator(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("separator must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("csvcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	sep := fs.String("sep", "", "field separator (default: detected from the header line)")
	onlyIncomplete := fs.Bool("incomplete", false, "list only columns with missing values")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: csvcheck [-sep ;] [-incomplete] file.csv...")
		return 2
	}
	comma, err := parseSeparator(*sep)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	logger := infrastructure.NewJSONLogger(stderr, nil).With(slog.String("component", "csvcheck"))

	report := Report{Files: make([]*etl.Diagnosis, 0, fs.NArg())}
	for _, path := range fs.Args() {
		d, err := etl.DiagnoseFile(path, comma)
		if err != nil {
			logger.Error("Failed to diagnose file", slog.String("file", path), slog.String("error", err.Error()))
			report.Errors = append(report.Errors, FileError{File: path, Error: err.Error()})
			continue
		}
		if *onlyIncomplete {
			d.Missing = d.Incomplete()
		}
		logger.Info("File diagnosed",
			slog.String("file", path),
			slog.Int("rows", d.Rows),
			slog.Int("duplicates", d.Duplicates))
		report.Files = append(report.Files, d)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(report.Errors) > 0 {
		return 1
	}
	return 0
}
