package storage

import (
	_ "embed"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// RunMigrations executes the database schema and any necessary
// migrations. Idempotent and safe to run multiple times.
func RunMigrations(db *sqlx.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "apply schema")
	}

	// Migration: add detail column to Report for resolution notes on
	// databases created before it existed.
	var colExists int
	err := db.Get(&colExists, `SELECT COUNT(*) FROM pragma_table_info('Report') WHERE name = 'detail'`)
	if err != nil {
		return errors.Wrap(err, "inspect Report table")
	}
	if colExists == 0 {
		if _, err := db.Exec(`ALTER TABLE Report ADD COLUMN detail TEXT NOT NULL DEFAULT ''`); err != nil {
			return errors.Wrap(err, "add Report.detail")
		}
	}

	return nil
}
