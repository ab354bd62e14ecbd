package database

import (
	"time"

	"github.com/carolhungwt/physio-doctor-platform/config"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int

	AutoMigrate bool
}

func (c Config) DSN() string { return buildDSN(c) }

// ConnMaxLifetime defaults to five minutes when unset.
func (c Config) ConnMaxLifetime() time.Duration {
	if c.ConnMaxLifetimeMin <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.ConnMaxLifetimeMin) * time.Minute
}

func FromCentralConfig(c config.DatabaseConfig) Config {
	return Config{
		Host:               c.Host,
		Port:               c.Port,
		User:               c.User,
		Password:           c.Password,
		DBName:             c.DBName,
		SSLMode:            c.SSLMode,
		MaxOpenConns:       c.Pool.MaxOpenConns,
		MaxIdleConns:       c.Pool.MaxIdleConns,
		ConnMaxLifetimeMin: c.Pool.ConnMaxLifetimeMin,
		AutoMigrate:        c.Migrations.AutoMigrate,
	}
}

// NewDSN is used for the casbin adapter, which opens its own connection.
func NewDSN(c config.DatabaseConfig) string {
	return FromCentralConfig(c).DSN()
}
