package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
	"github.com/carolhungwt/physio-doctor-platform/pkg/authorize"
	"github.com/carolhungwt/physio-doctor-platform/pkg/crypto"
	"github.com/carolhungwt/physio-doctor-platform/pkg/database"
	"github.com/carolhungwt/physio-doctor-platform/pkg/events"
	"github.com/carolhungwt/physio-doctor-platform/pkg/logs"
	"github.com/carolhungwt/physio-doctor-platform/pkg/observability"
	pasetotoken "github.com/carolhungwt/physio-doctor-platform/pkg/paseto"
	redispkg "github.com/carolhungwt/physio-doctor-platform/pkg/redis"
	"github.com/carolhungwt/physio-doctor-platform/pkg/util/password"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideEntClient),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideSessionStore),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideReferralMetrics),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvideEventBus),
	fx.Provide(ProvideFieldCipher),
	fx.Provide(ProvidePasswordHasher),
	fx.Provide(ProvidePasetoManager),
)

// ProvideLogger builds the process logger and installs it as slog's default
// so package-level slog calls share its outputs.
func ProvideLogger(lc fx.Lifecycle, cfg *config.Config) *slog.Logger {
	logger, flush := logs.New(cfg)
	slog.SetDefault(logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			flush()
			return nil
		},
	})
	return logger
}

func ProvideEntClient(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*repo.Client, error) {
	client, err := database.NewEntClient(cfg.Database)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Database.Migrations.AutoMigrate {
				return nil
			}
			logger.Info("applying schema migrations")
			return database.MigrateEnt(ctx, client)
		},
		OnStop: func(ctx context.Context) error {
			logger.Debug("closing main database connection")
			return client.Close()
		},
	})
	return client, nil
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideSessionStore(rdb *redis.Client) *redispkg.SessionStore {
	return redispkg.NewSessionStore(rdb)
}

func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (authorize.IAuthorization, error) {
	acfg := authorize.FromCentralConfig(cfg.Authorization)
	dsn := database.NewDSN(cfg.CasbinDatabase)
	enforcer, cleanup, err := authorize.NewEnforcer(acfg, dsn)
	if err != nil {
		return nil, err
	}
	auth, err := authorize.NewAuthorization(enforcer, acfg.SuperadminBypass)
	if err != nil {
		cleanup(context.Background())
		return nil, err
	}
	if acfg.EnableAudit {
		auth = authorize.NewAuditedAuthorization(auth, logger)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Debug("cleaning up Casbin enforcer")
			cleanup(ctx)
			return nil
		},
	})
	return auth, nil
}

// ProvideNatsClient returns a nil connection when nats.url is empty.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*nats.Conn, error) {
	nc, err := events.Connect(cfg.Nats, logger)
	if err != nil || nc == nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideEventBus(cfg *config.Config, nc *nats.Conn, logger *slog.Logger) *events.Bus {
	// A typed nil *nats.Conn inside the interface would not read as "off".
	if nc == nil {
		return events.NewBus(nil, cfg.Nats.SubjectPrefix, logger)
	}
	return events.NewBus(nc, cfg.Nats.SubjectPrefix, logger)
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	logger.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

// ProvideReferralMetrics depends on the telemetry provider so the instruments
// bind to the real meter provider when one is installed.
func ProvideReferralMetrics(_ *observability.Provider) (*observability.ReferralMetrics, error) {
	return observability.NewReferralMetrics()
}

func ProvideFieldCipher(cfg *config.Config) (*crypto.FieldCipher, error) {
	return crypto.NewFieldCipher(cfg.Authentication.EncryptionKey)
}

func ProvidePasswordHasher(cfg *config.Config) *password.Hasher {
	return password.NewHasher(password.FromCentralConfig(cfg.Password))
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}
