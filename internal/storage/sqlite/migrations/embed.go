// Package migrations embeds the SQLite schema migrations for torchlight.
package migrations

import "embed"

// FS contains embedded SQLite migrations for torchlight storage.
//
//go:embed *.sql
var FS embed.FS
