package app

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/auth"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/patient"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/profile"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/referral"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/user"
	"github.com/carolhungwt/physio-doctor-platform/pkg/crypto"
	"github.com/carolhungwt/physio-doctor-platform/pkg/events"
	"github.com/carolhungwt/physio-doctor-platform/pkg/observability"
	pasetotoken "github.com/carolhungwt/physio-doctor-platform/pkg/paseto"
	redispkg "github.com/carolhungwt/physio-doctor-platform/pkg/redis"
	"github.com/carolhungwt/physio-doctor-platform/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideUserService,
		ProvideAuthService,
		ProvideProfileService,
		ProvidePatientService,
		ProvideReferralService,
	),
)

func ProvideUserService(db *repo.Client) user.Service {
	return user.New(db)
}

func ProvideAuthService(
	db *repo.Client,
	sessions *redispkg.SessionStore,
	paseto *pasetotoken.Manager,
	hasher *password.Hasher,
	cfg *config.Config,
	logger *slog.Logger,
) auth.Service {
	return auth.New(db, sessions, paseto, hasher, auth.Config{
		MinPasswordLength:  cfg.Password.MinLength,
		DefaultPhoneRegion: cfg.Referral.DefaultPhoneRegion,
	}, logger)
}

func ProvideProfileService(db *repo.Client, cipher *crypto.FieldCipher, logger *slog.Logger) profile.Service {
	return profile.New(db, cipher, logger)
}

func ProvidePatientService(db *repo.Client) patient.Service {
	return patient.New(db)
}

func ProvideReferralService(
	db *repo.Client,
	hasher *password.Hasher,
	cfg *config.Config,
	bus *events.Bus,
	metrics *observability.ReferralMetrics,
	logger *slog.Logger,
) referral.Service {
	return referral.New(db, hasher, referral.ConfigFromCentral(cfg),
		referral.WithEvents(bus),
		referral.WithMetrics(metrics),
		referral.WithLogger(logger),
	)
}
