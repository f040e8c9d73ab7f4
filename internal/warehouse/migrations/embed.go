package migrations

import "embed"

// FS contains the embedded warehouse schema migrations.
//
//go:embed *.sql
var FS embed.FS
