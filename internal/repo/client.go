package repo

import (
	"context"
	stdsql "database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo/migrate"
)

// Client is the storage entry point for identities, profiles and referrals.
// Queries are built with ent's SQL builder for the Postgres dialect.
type Client struct {
	driver dialect.Driver

	// Schema is the client for creating, migrating and dropping schema.
	Schema *migrate.Schema
}

// NewClient wraps an already-open ent driver.
func NewClient(drv dialect.Driver) *Client {
	return &Client{driver: drv, Schema: migrate.NewSchema(drv)}
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.driver.Close()
}

// Ping runs a trivial query; used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	var rows entsql.Rows
	if err := c.driver.Query(ctx, "SELECT 1", []any{}, &rows); err != nil {
		return err
	}
	return rows.Close()
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

// withTx runs fn inside a transaction, rolling back on error or panic.
func (c *Client) withTx(ctx context.Context, fn func(q dialect.ExecQuerier) error) error {
	tx, err := c.driver.Tx(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr(fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

func exec(ctx context.Context, q dialect.ExecQuerier, query string, args []any) error {
	return mapErr(q.Exec(ctx, query, args, nil))
}

// execAffected runs a write and reports how many rows it touched.
func execAffected(ctx context.Context, q dialect.ExecQuerier, query string, args []any) (int64, error) {
	var res stdsql.Result
	if err := q.Exec(ctx, query, args, &res); err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}

// queryAll runs a select and scans every row with scan.
func queryAll[T any](ctx context.Context, q dialect.ExecQuerier, query string, args []any, scan func(entsql.ColumnScanner) (*T, error)) ([]*T, error) {
	var rows entsql.Rows
	if err := q.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// queryOne is queryAll for at most one row; no row is ErrNotFound.
func queryOne[T any](ctx context.Context, q dialect.ExecQuerier, query string, args []any, scan func(entsql.ColumnScanner) (*T, error)) (*T, error) {
	all, err := queryAll(ctx, q, query, args, scan)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNotFound
	}
	return all[0], nil
}
