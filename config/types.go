package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Database       DatabaseConfig       `mapstructure:"database"`
	CasbinDatabase DatabaseConfig       `mapstructure:"casbin_database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Server         ServerConfig         `mapstructure:"server"`
	Authentication AuthenticationConfig `mapstructure:"authentication"`
	Authorization  AuthorizationConfig  `mapstructure:"authorization"`
	Password       PasswordConfig       `mapstructure:"password"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Nats           NatsConfig           `mapstructure:"nats"`
	Referral       ReferralConfig       `mapstructure:"referral"`
}

type NatsConfig struct {
	URL            string `mapstructure:"url"`
	SubjectPrefix  string `mapstructure:"subject_prefix"`
	ConnectTimeout int    `mapstructure:"connect_timeout_seconds"`
}

type DatabaseConfig struct {
	Host       string                  `mapstructure:"host"`
	Port       int                     `mapstructure:"port"`
	User       string                  `mapstructure:"user"`
	Password   string                  `mapstructure:"password"`
	DBName     string                  `mapstructure:"dbname"`
	SSLMode    string                  `mapstructure:"sslmode"`
	Pool       DatabasePoolConfig      `mapstructure:"pool"`
	Migrations DatabaseMigrationConfig `mapstructure:"migrations"`
}

type DatabasePoolConfig struct {
	MaxOpenConns       int `mapstructure:"max_open_conns"`
	MaxIdleConns       int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int `mapstructure:"conn_max_lifetime_minutes"`
}

type DatabaseMigrationConfig struct {
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type ServerConfig struct {
	Port           int             `mapstructure:"port"`
	TimeoutSeconds int             `mapstructure:"timeout_seconds"`
	Environment    string          `mapstructure:"environment"`
	Databases      []string        `mapstructure:"databases"`
	CORS           CORSConfig      `mapstructure:"cors"`
	Headers        HeadersConfig   `mapstructure:"headers"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Max               int `mapstructure:"max"`
	ExpirationSeconds int `mapstructure:"expiration_seconds"`
}

type HeadersConfig struct {
	XSSProtection             string `mapstructure:"xss_protection"`
	ContentTypeNosniff        string `mapstructure:"content_type_nosniff"`
	XFrameOptions             string `mapstructure:"x_frame_options"`
	ReferrerPolicy            string `mapstructure:"referrer_policy"`
	CrossOriginEmbedderPolicy string `mapstructure:"cross_origin_embedder_policy"`
	CrossOriginOpenerPolicy   string `mapstructure:"cross_origin_opener_policy"`
	CrossOriginResourcePolicy string `mapstructure:"cross_origin_resource_policy"`
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposeHeaders    []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds"`
}

type AuthenticationConfig struct {
	DefaultPasswordLength int          `mapstructure:"default_password_length"`
	Paseto                PasetoConfig `mapstructure:"paseto"`
	// EncryptionKey is a 32-byte hex string used for AES-256-GCM encryption
	// of banking account numbers.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type PasetoConfig struct {
	Mode             string `mapstructure:"mode"`
	LocalKeyHex      string `mapstructure:"local_key_hex"`
	SecretKeyHex     string `mapstructure:"secret_key_hex"`
	PublicKeyHex     string `mapstructure:"public_key_hex"`
	Issuer           string `mapstructure:"issuer"`
	Audience         string `mapstructure:"audience"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLDays   int    `mapstructure:"refresh_ttl_days"`
}

type AuthorizationConfig struct {
	CasbinModelPath   string `mapstructure:"casbin_model_path"`
	EnableAudit       bool   `mapstructure:"enable_audit"`
	PolicySyncEnabled bool   `mapstructure:"policy_sync_enabled"`
}

type PasswordConfig struct {
	MemoryKiB   uint32 `mapstructure:"memory_kib"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
	MinLength   int    `mapstructure:"min_length"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`        // e.g. "logs/app.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // e.g. "http://localhost:3100/loki/api/v1/push"
	TenantID string `mapstructure:"tenant_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ReferralConfig tunes the referral workflow.
type ReferralConfig struct {
	DefaultValidityDays int `mapstructure:"default_validity_days"`
	// MaxValidityDays caps validityDays on creation. Zero means no cap.
	MaxValidityDays        int           `mapstructure:"max_validity_days"`
	ExpirySweepEnabled     bool          `mapstructure:"expiry_sweep_enabled"`
	ExpirySweepInterval    time.Duration `mapstructure:"expiry_sweep_interval"`
	DefaultPhoneRegion     string        `mapstructure:"default_phone_region"`
	PlaceholderEmailDomain string        `mapstructure:"placeholder_email_domain"`
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.TimeoutSeconds <= 0 {
		c.Server.TimeoutSeconds = 30
	}

	if key, err := hex.DecodeString(c.Authentication.EncryptionKey); err != nil || len(key) != 32 {
		errs = append(errs, errors.New("authentication.encryption_key must be 64 hex characters"))
	}
	if c.Authentication.DefaultPasswordLength <= 0 {
		c.Authentication.DefaultPasswordLength = 16
	}

	r := &c.Referral
	if r.DefaultValidityDays <= 0 {
		r.DefaultValidityDays = 90
	}
	if r.MaxValidityDays < 0 {
		errs = append(errs, fmt.Errorf("referral.max_validity_days must not be negative: %d", r.MaxValidityDays))
	}
	if r.MaxValidityDays > 0 && r.DefaultValidityDays > r.MaxValidityDays {
		errs = append(errs, fmt.Errorf("referral.default_validity_days (%d) exceeds max_validity_days (%d)",
			r.DefaultValidityDays, r.MaxValidityDays))
	}
	if r.ExpirySweepInterval <= 0 {
		r.ExpirySweepInterval = 15 * time.Minute
	}
	if r.DefaultPhoneRegion == "" {
		r.DefaultPhoneRegion = "HK"
	}
	if r.PlaceholderEmailDomain == "" {
		r.PlaceholderEmailDomain = "patients.invalid"
	}

	return errors.Join(errs...)
}
