// Package memoirserver встраивает SQL-миграции, чтобы бинарники не
// зависели от расположения файлов на диске.
package memoirserver

import "embed"

//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsPath - путь к миграциям внутри MigrationsFS.
const MigrationsPath = "migrations"
