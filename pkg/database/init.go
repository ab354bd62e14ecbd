package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/lib/pq"
)

// InitializeDatabases creates the application and casbin databases if they
// don't exist. It connects to the default 'postgres' database to create them.
func InitializeDatabases(cfg *config.Config) error {
	names := cfg.Server.Databases
	if len(names) == 0 {
		names = []string{cfg.Database.DBName, cfg.CasbinDatabase.DBName}
	}

	postgresConfig := Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   "postgres",
		SSLMode:  cfg.Database.SSLMode,
	}

	conn, err := openSQLDB(postgresConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer conn.Close()

	for _, dbName := range names {
		if dbName == "" {
			continue
		}
		if err := createDatabaseIfNotExists(conn, dbName); err != nil {
			return fmt.Errorf("failed to create database %q: %w", dbName, err)
		}
	}

	return nil
}

func createDatabaseIfNotExists(conn *sql.DB, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	if err := conn.QueryRowContext(ctx, query, dbName).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	return nil
}
