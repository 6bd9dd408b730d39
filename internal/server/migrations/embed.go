// Package migrations embeds the server-side PostgreSQL schema migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
