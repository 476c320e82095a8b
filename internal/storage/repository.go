package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"fintrack/internal/ledger"
)

// Repository is the SQL ledger store shared by the SQLite and PostgreSQL
// backends.
type Repository struct {
	*Queries
	db      *sql.DB
	dialect Dialect
}

var _ ledger.Store = (*Repository)(nil)

// Open connects to dsn, applies migrations and returns a ready repository.
func Open(ctx context.Context, d Dialect, dsn string) (*Repository, error) {
	db, err := openDB(d, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "Ledger database ready", "dialect", string(d))

	return &Repository{
		Queries: New(db, d),
		db:      db,
		dialect: d,
	}, nil
}

func NewSQLiteRepository(ctx context.Context, dbPath string) (*Repository, error) {
	return Open(ctx, SQLite, dbPath)
}

func NewPostgresRepository(ctx context.Context, databaseURL string) (*Repository, error) {
	return Open(ctx, Postgres, databaseURL)
}

func (r *Repository) Dialect() Dialect {
	return r.dialect
}

// WithTx runs fn in a database transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(q ledger.Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.Queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
