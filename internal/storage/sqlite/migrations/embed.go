package migrations

import "embed"

// FS contains embedded SQLite migrations for the time-entry journal.
//
//go:embed *.sql
var FS embed.FS
