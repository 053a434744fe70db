// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/skydexapp/skydex/internal/dbx"
	"github.com/skydexapp/skydex/internal/server/migrations"
	"github.com/skydexapp/skydex/internal/server/repositories/cards"
	"github.com/skydexapp/skydex/internal/server/repositories/imagehashes"
	"github.com/skydexapp/skydex/internal/server/repositories/litrecords"
	"github.com/skydexapp/skydex/internal/server/repositories/states"
	"github.com/skydexapp/skydex/internal/server/repositories/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// States returns a states.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) States(db dbx.DBTX) states.Repository {
	return states.NewPostgresRepository(db)
}

// Cards returns a cards.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Cards(db dbx.DBTX) cards.Repository {
	return cards.NewPostgresRepository(db)
}

// LitRecords returns a litrecords.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) LitRecords(db dbx.DBTX) litrecords.Repository {
	return litrecords.NewPostgresRepository(db)
}

// ImageHashes returns an imagehashes.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) ImageHashes(db dbx.DBTX) imagehashes.Repository {
	return imagehashes.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
