package db

import "embed"

// EmbedMigrations holds the row-store schema migrations.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
