package http

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/carolhungwt/physio-doctor-platform/internal/api/http/router"
	"github.com/carolhungwt/physio-doctor-platform/internal/app"
)

func Start(cfg *config.Config, timeout time.Duration) {
	fx.New(
		fx.Supply(cfg),
		app.InfraModule,
		app.ServiceModule,
		app.WorkerModule,
		router.Module,
		Module,

		// NewServer is only built when something asks for *fiber.App,
		// and building it registers the listen hook.
		fx.Invoke(func(*fiber.App) {}),

		fx.StopTimeout(timeout),
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
	).Run()
}
