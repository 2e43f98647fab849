// Package migrations embeds the SQL schema migrations so deployments never
// depend on migration files being present on disk.
package migrations

import "embed"

// FS holds the embedded goose migration files.
//
//go:embed *.sql
var FS embed.FS
