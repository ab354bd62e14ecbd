package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/carolhungwt/physio-doctor-platform/pkg/constants"
	"github.com/spf13/viper"
)

// ReadConfig loads config.yaml from configPath and applies PDP_* environment
// overrides. Each call uses its own viper instance.
func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	// e.g. PDP_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Container deployments run from env only.
		if os.Getenv(constants.EnvPrefix+"_DATABASE_HOST") == "" {
			return nil, fmt.Errorf("config file not found in %q and %s_DATABASE_HOST unset", configPath, constants.EnvPrefix)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults registers every key viper should resolve from the environment
// even when the config file omits it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "physio_platform")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.pool.max_open_conns", 25)
	v.SetDefault("database.pool.max_idle_conns", 5)
	v.SetDefault("database.pool.conn_max_lifetime_minutes", 30)
	v.SetDefault("database.migrations.auto_migrate", false)

	v.SetDefault("casbin_database.host", "localhost")
	v.SetDefault("casbin_database.port", 5432)
	v.SetDefault("casbin_database.user", "postgres")
	v.SetDefault("casbin_database.password", "")
	v.SetDefault("casbin_database.dbname", "physio_platform_casbin")
	v.SetDefault("casbin_database.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.max", 20)
	v.SetDefault("server.rate_limit.expiration_seconds", 30)

	v.SetDefault("authentication.encryption_key", "")
	v.SetDefault("authentication.default_password_length", 16)
	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.local_key_hex", "")
	v.SetDefault("authentication.paseto.issuer", "physio-doctor-platform")
	v.SetDefault("authentication.paseto.audience", "physio-doctor-platform")
	v.SetDefault("authentication.paseto.access_ttl_minutes", 15)
	v.SetDefault("authentication.paseto.refresh_ttl_days", 30)

	v.SetDefault("authorization.casbin_model_path", "casbin_model.conf")
	v.SetDefault("authorization.enable_audit", true)

	v.SetDefault("password.memory_kib", 64*1024)
	v.SetDefault("password.iterations", 3)
	v.SetDefault("password.parallelism", 2)
	v.SetDefault("password.salt_length", 16)
	v.SetDefault("password.key_length", 32)
	v.SetDefault("password.min_length", 8)

	v.SetDefault("observability.service_name", constants.ServiceName)
	v.SetDefault("observability.service_version", "dev")
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "pdp")
	v.SetDefault("nats.connect_timeout_seconds", 5)

	v.SetDefault("referral.default_validity_days", 90)
	v.SetDefault("referral.max_validity_days", 0)
	v.SetDefault("referral.expiry_sweep_enabled", true)
	v.SetDefault("referral.expiry_sweep_interval", "15m")
	v.SetDefault("referral.default_phone_region", "HK")
	v.SetDefault("referral.placeholder_email_domain", "patients.invalid")
}
