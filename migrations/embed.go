// Package migrations embeds the SQL schema migrations for LumaCue Core.
package migrations

import "embed"

//go:embed *.sql
var files embed.FS

// Files returns the embedded migration files.
func Files() embed.FS {
	return files
}
