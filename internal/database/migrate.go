package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	dialect      = "sqlite3"
	migrationDir = "migrations"
)

// Migrate applies pending schema migrations for the settings store.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationFS)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("selecting %s dialect: %w", dialect, err)
	}

	if err := goose.Up(db, migrationDir); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	return nil
}
