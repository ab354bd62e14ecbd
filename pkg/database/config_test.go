package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carolhungwt/physio-doctor-platform/config"
)

func TestFromCentralConfigDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "pdp",
		Password: "secret",
		DBName:   "physio_platform",
		SSLMode:  "require",
		Pool:     config.DatabasePoolConfig{ConnMaxLifetimeMin: 10},
	}

	assert.Equal(t,
		"host=db port=5433 user=pdp password=secret dbname=physio_platform sslmode=require",
		NewDSN(cfg))
	assert.Equal(t, 10*time.Minute, FromCentralConfig(cfg).ConnMaxLifetime())
	assert.Equal(t, 5*time.Minute, Config{}.ConnMaxLifetime())
}

func TestDSNQuotesAndOmits(t *testing.T) {
	c := Config{Host: "localhost", User: "pdp", Password: `it's a pass\word`, DBName: "physio_platform"}
	assert.Equal(t,
		`host=localhost user=pdp password='it\'s a pass\\word' dbname=physio_platform`,
		c.DSN())
}
