package router

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/carolhungwt/physio-doctor-platform/internal/api/http/handler"
	"github.com/carolhungwt/physio-doctor-platform/internal/api/http/middleware"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/auth"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/patient"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/profile"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/referral"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/user"
	"github.com/carolhungwt/physio-doctor-platform/pkg/authorize"
	pasetotoken "github.com/carolhungwt/physio-doctor-platform/pkg/paseto"
	pkgredis "github.com/carolhungwt/physio-doctor-platform/pkg/redis"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg         *config.Config
	Redis       *redis.Client
	Auth        authorize.IAuthorization
	Sessions    *pkgredis.SessionStore
	PasetoMgr   *pasetotoken.Manager
	UserSvc     user.Service
	AuthSvc     auth.Service
	ProfileSvc  profile.Service
	PatientSvc  patient.Service
	ReferralSvc referral.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.Sessions)

	// Permission helper
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc)
	userH := handler.NewUserHandler(r.p.UserSvc)
	profileH := handler.NewProfileHandler(r.p.ProfileSvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc)
	referralH := handler.NewReferralHandler(r.p.ReferralSvc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired)
	r.registerUserRoutes(api, userH, authRequired, requirePerm)
	r.registerProfileRoutes(api, profileH, authRequired, requirePerm)
	r.registerPatientRoutes(api, patientH, authRequired, requirePerm)
	r.registerReferralRoutes(api, referralH, authRequired, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			if !authorize.IsPolicyHealthy() {
				return false
			}
			return r.p.Redis.Ping(context.Background()).Err() == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
