package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

// buildDSN renders a libpq keyword/value string. Empty values are omitted
// and values containing spaces or quotes are single-quoted.
func buildDSN(c Config) string {
	pairs := []struct{ k, v string }{
		{"host", c.Host},
		{"port", portString(c.Port)},
		{"user", c.User},
		{"password", c.Password},
		{"dbname", c.DBName},
		{"sslmode", c.SSLMode},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.v == "" {
			continue
		}
		parts = append(parts, p.k+"="+quoteDSNValue(p.v))
	}
	return strings.Join(parts, " ")
}

func portString(p int) string {
	if p <= 0 {
		return ""
	}
	return strconv.Itoa(p)
}

func quoteDSNValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// openSQLDB opens a pooled handle through the pq connector and fails fast
// when the server is unreachable.
func openSQLDB(cfg Config) (*sql.DB, error) {
	connector, err := pq.NewConnector(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn for %s: %w", cfg.DBName, err)
	}
	db := sql.OpenDB(connector)

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.DBName, err)
	}
	return db, nil
}
