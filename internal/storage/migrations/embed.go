// Package migrations holds the SQL schema migrations applied when the store opens.
package migrations

import "embed"

// Files exposes the compiled-in migration SQL files.
//
//go:embed *.sql
var Files embed.FS
