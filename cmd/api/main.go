package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"parisdash/internal/app"
)

// Static dashboard served under /app/
//
//go:embed all:frontend
var frontendFiles embed.FS

func main() {
	frontendFS, err := frontend(frontendFiles)
	if err != nil {
		slog.Warn("Frontend embedding failed, /app/ disabled", slog.String("error", err.Error()))
	}

	application, err := app.NewApplication(frontendFS)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// frontend returns the embedded files rooted at frontend/, or nil when the
// directory holds no index page.
func frontend(files fs.FS) (fs.FS, error) {
	sub, err := fs.Sub(files, "frontend")
	if err != nil {
		return nil, err
	}
	if _, err := fs.Stat(sub, "index.html"); err != nil {
		return nil, err
	}
	return sub, nil
}
