package persistence

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // database/sql driver for one-shot CLI connections

	"github.com/intervsched/scheduler/internal/shared/infrastructure/database"
)

// sqlConnection adapts a *sql.DB (opened with the lib/pq driver) to
// database.Connection, for CLI invocations that want a single short-lived
// Postgres connection instead of the pgxpool used by long-running services.
type sqlConnection struct {
	db *sql.DB
}

// OpenLightweightPostgres opens a database/sql connection against Postgres
// using lib/pq, for one-shot CLI commands where pgxpool's pooling and
// background housekeeping goroutines are unnecessary overhead.
func OpenLightweightPostgres(ctx context.Context, url string) (database.Connection, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open lib/pq connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping lib/pq connection: %w", err)
	}
	return &sqlConnection{db: db}, nil
}

func (c *sqlConnection) Driver() database.Driver { return database.DriverPostgres }
func (c *sqlConnection) Close() error            { return c.db.Close() }
func (c *sqlConnection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *sqlConnection) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTransaction{tx: tx}, nil
}

func (c *sqlConnection) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return database.WrapSQLResult(res), nil
}

func (c *sqlConnection) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

func (c *sqlConnection) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return database.WrapSQLRows(rows), nil
}

type sqlTransaction struct {
	tx *sql.Tx
}

func (t *sqlTransaction) Commit(ctx context.Context) error   { return t.tx.Commit() }
func (t *sqlTransaction) Rollback(ctx context.Context) error { return t.tx.Rollback() }

func (t *sqlTransaction) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return database.WrapSQLResult(res), nil
}

func (t *sqlTransaction) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t *sqlTransaction) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return database.WrapSQLRows(rows), nil
}
