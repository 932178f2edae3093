// Package migrations embeds the goose SQL migrations for each supported dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// Dir returns the migration directory inside FS for a database driver.
func Dir(driver string) string {
	if driver == "postgres" {
		return "postgres"
	}
	return "sqlite"
}
