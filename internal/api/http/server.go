package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/carolhungwt/physio-doctor-platform/internal/api/http/middleware"
	"github.com/carolhungwt/physio-doctor-platform/internal/api/http/router"
	"github.com/carolhungwt/physio-doctor-platform/pkg/observability"
)

// Module provides the HTTP Server to the fx graph.
var Module = fx.Module("http", fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Logger    *slog.Logger
	Redis     *redis.Client
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

func NewServer(p Params) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      p.Cfg.Observability.ServiceName,
		ErrorHandler: errorHandler,
	})

	app.Use(middleware.RequestID())
	if p.OTel != nil {
		app.Use(observability.FiberMiddleware())
	}
	configureGlobalMiddleware(app, p.Cfg, p.Redis)

	p.Router.Register(app)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Cfg.Server.Port)
			go func() {
				if err := app.Listen(addr); err != nil {
					p.Logger.Error("HTTP server error", "error", err)
				}
			}()
			p.Logger.Info("HTTP server listening", "addr", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

// errorHandler renders errors returned by middleware (fiber.ErrUnauthorized
// and friends) in the same {"error": ...} envelope the handlers use.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		slog.Default().Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func configureGlobalMiddleware(app *fiber.App, cfg *config.Config, rdb *redis.Client) {
	app.Use(recoverer.New())
	app.Use(middleware.Deadline(time.Duration(cfg.Server.TimeoutSeconds) * time.Second))

	if cfg.IsProduction() {
		app.Use(helmet.New(helmet.Config{
			XSSProtection:             cfg.Server.Headers.XSSProtection,
			ContentTypeNosniff:        cfg.Server.Headers.ContentTypeNosniff,
			XFrameOptions:             cfg.Server.Headers.XFrameOptions,
			ReferrerPolicy:            cfg.Server.Headers.ReferrerPolicy,
			CrossOriginEmbedderPolicy: cfg.Server.Headers.CrossOriginEmbedderPolicy,
			CrossOriginOpenerPolicy:   cfg.Server.Headers.CrossOriginOpenerPolicy,
			CrossOriginResourcePolicy: cfg.Server.Headers.CrossOriginResourcePolicy,
		}))
		app.Use(middleware.NewLimiterWithRedis(rdb, cfg.Server.RateLimit))
	}

	if cfg.Server.CORS.Enabled {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORS.AllowOrigins,
			AllowMethods:     cfg.Server.CORS.AllowMethods,
			AllowHeaders:     cfg.Server.CORS.AllowHeaders,
			ExposeHeaders:    cfg.Server.CORS.ExposeHeaders,
			AllowCredentials: cfg.Server.CORS.AllowCredentials,
			MaxAge:           cfg.Server.CORS.MaxAgeSeconds,
		}))
	}

	app.Use(logger.New(logger.Config{
		Format: "${ip} - [${time}] [req_id=${respHeader:X-Request-Id}] ${method} ${url} ${status}\n",
	}))
}
