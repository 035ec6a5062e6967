// Package migrations holds the numbered schema migrations of the content
// store, applied in order by sqlite.NewStore.
package migrations

import "embed"

// FS holds the *.up.sql files.
//
//go:embed *.up.sql
var FS embed.FS
