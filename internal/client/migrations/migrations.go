// Package migrations embeds the goose migrations of the local share history.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
