package staff

import "embed"

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the embedded goose migrations.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
