// Package migrations holds the versioned schema of the SQLite vector
// store, applied with golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
