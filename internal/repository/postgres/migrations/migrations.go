// Package migrations embeds the goose migrations for the hosted backend.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
