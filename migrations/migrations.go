// Package migrations ships the schema as SQL files compiled into the binary,
// so a deploy is one artifact with nothing to copy alongside it.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
