package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
)

// NewEntClient opens the application database behind an ent Postgres driver.
func NewEntClient(cfg config.DatabaseConfig) (*repo.Client, error) {
	db, err := openSQLDB(FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	return repo.NewClient(entsql.OpenDB(dialect.Postgres, db)), nil
}

// MigrateEnt applies the schema additively: indexes may be rebuilt but no
// column or table is ever dropped.
func MigrateEnt(ctx context.Context, client *repo.Client) error {
	if err := client.Schema.Create(ctx,
		schema.WithDropIndex(true),
		schema.WithDropColumn(false),
		schema.WithForeignKeys(true),
	); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
