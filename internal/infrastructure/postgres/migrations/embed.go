package migrations

import "embed"

// FS migraciones SQL del libro de inventario.
//
//go:embed *.sql
var FS embed.FS
