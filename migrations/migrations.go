// Package migrations embeds the PostgreSQL schema of the grading service.
package migrations

import "embed"

// Files holds every *.sql migration, applied in lexical order.
//
//go:embed *.sql
var Files embed.FS
