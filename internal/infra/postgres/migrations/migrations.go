// Package migrations holds the schema for assessments and graded submissions.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
