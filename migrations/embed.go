// Package migrations embeds the relay's SQLite schema migrations into the
// binary and registers them with the database package.
package migrations

import (
	"embed"

	"github.com/nerrad567/irrigation-relay/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
