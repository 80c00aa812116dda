// Package migrations embeds the PostgreSQL schema migrations so the server
// and the migrate CLI can apply them without shipping the directory.
package migrations

import "embed"

// FS holds the numbered up/down migration files
//
//go:embed *.sql
var FS embed.FS
