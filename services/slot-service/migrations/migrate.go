// Package migrations applies the embedded slot-service schema.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/slotbook/libs/db"
)

//go:embed *.sql
var files embed.FS

const migrationsTable = "public.schema_migrations_slots"

// Up applies every embedded migration not yet recorded, in filename order.
func Up(ctx context.Context, pool *db.Pool) error {
	if pool == nil || pool.Pool == nil {
		return errors.New("db is required")
	}
	if err := ensureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	names, err := Names()
	if err != nil {
		return err
	}

	for _, name := range names {
		applied, err := isApplied(ctx, pool, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		sqlBytes, err := files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		err = pool.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO `+migrationsTable+` (filename) VALUES ($1)`, name)
			return err
		})
		if err == nil {
			continue
		}
		if !isIgnorableMigrationError(err) {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if err := markApplied(ctx, pool, name); err != nil {
			return fmt.Errorf("record migration %s after ignored error: %w", name, err)
		}
	}
	return nil
}

// Names lists the embedded migration files in apply order.
func Names() ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list embedded migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func ensureMigrationsTable(ctx context.Context, pool *db.Pool) error {
	query := `
CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
	filename text PRIMARY KEY,
	applied_at timestamptz NOT NULL DEFAULT now()
)`
	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure migration table %s: %w", migrationsTable, err)
	}
	return nil
}

func isApplied(ctx context.Context, pool *db.Pool, name string) (bool, error) {
	var exists bool
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+migrationsTable+` WHERE filename = $1)`,
		name,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return exists, nil
}

func markApplied(ctx context.Context, pool *db.Pool, name string) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO `+migrationsTable+` (filename) VALUES ($1) ON CONFLICT (filename) DO NOTHING`,
		name,
	)
	return err
}

func isIgnorableMigrationError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "42P07", // duplicate_table
		"42710", // duplicate_object
		"42701": // duplicate_column
		return true
	default:
		return false
	}
}
