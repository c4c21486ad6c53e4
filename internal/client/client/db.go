package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/colsync/internal/client/migrations"
	"github.com/dmitrijs2005/colsync/internal/client/repositories/envelopes"
	"github.com/pressly/goose/v3"
)

type Repositories struct {
	Envelopes envelopes.Repository
	DB        *sql.DB
}

// Close closes the underlying database.
func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite store at dsn and brings its schema up to
// date. The caller must import an sqlite driver registered as "sqlite".
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps in-memory databases alive and serializes writes
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}

	return &Repositories{
		Envelopes: envelopes.NewSQLiteRepository(db),
		DB:        db,
	}, nil
}
