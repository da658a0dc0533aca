package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var Migrations embed.FS

func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies every pending migration found under migrations/ in the
// given filesystem. An up-to-date database is not an error.
func Migrate(url string, migrations fs.FS) (migrator *migrate.Migrate, err error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("unable to create migrations iofs: %w", err)
	}
	migrator, err = migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return nil, fmt.Errorf("unable to create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return migrator, nil
}

// ConnectAndMigrate migrates the database, releases the migrator's own
// connections and returns a pool together with the schema version reached.
func ConnectAndMigrate(ctx context.Context, url string) (pool *pgxpool.Pool, version uint, err error) {
	migrator, err := Migrate(url, Migrations)
	if err != nil {
		return nil, 0, err
	}
	version, dirty, verErr := migrator.Version()
	srcErr, dbErr := migrator.Close()
	if err := errors.Join(verErr, srcErr, dbErr); err != nil {
		return nil, 0, fmt.Errorf("unable to finish migration: %w", err)
	}
	if dirty {
		return nil, 0, fmt.Errorf("database is dirty at version %d", version)
	}
	pool, err = Connect(ctx, url)
	if err != nil {
		return nil, 0, err
	}
	return pool, version, nil
}
