// Package migrations holds the Postgres schema for the question bank.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is applied by the migrate command and on start when Postgres is configured.
var Migrations = migrate.NewMigrations()
