// Package migrations embeds the goose SQL migrations. The same files are
// applied to SQLite and PostgreSQL.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
