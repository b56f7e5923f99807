package migrations

import (
	"embed"

	"github.com/uptrace/bun/migrate"
)

// Directory is where `migrate create` writes new files, relative to the repo root.
const Directory = "migrations"

var Migrations = migrate.NewMigrations(migrate.WithMigrationsDirectory(Directory))

//go:embed *.sql
var sqlMigrations embed.FS

func init() {
	if err := Migrations.Discover(sqlMigrations); err != nil {
		panic(err)
	}
}
