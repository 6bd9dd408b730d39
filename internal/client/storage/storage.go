// Package storage opens the client-side SQLite database and applies the
// embedded schema migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bizkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/bizkeeper/internal/client/repositories/state"
	"github.com/pressly/goose/v3"
)

// Repositories bundles the repositories backed by one local database.
type Repositories struct {
	DB      *sql.DB
	Records records.Repository
	State   state.Repository
}

// RunMigrations applies all embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the database at dsn, migrates it, and
// returns the bound repositories.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	return &Repositories{
		DB:      db,
		Records: records.NewSQLiteRepository(db),
		State:   state.NewSQLiteRepository(db),
	}, nil
}
