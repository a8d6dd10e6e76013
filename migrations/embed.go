// Package migrations embeds the postgres schema so the server and the
// migrate CLI can run without the SQL files on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
