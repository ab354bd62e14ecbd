package observability

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolhungwt/physio-doctor-platform/config"
)

func TestFromCentralConfigOnlyExportsWhenTracingEnabled(t *testing.T) {
	c := &config.Config{}
	c.Server.Environment = "staging"
	c.Observability.ServiceName = "pdp"
	c.Observability.Tracing.OTLPEndpoint = "otel:4318"

	cfg := FromCentralConfig(c)
	assert.Equal(t, "pdp", cfg.ServiceName)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Empty(t, cfg.OTLPEndpoint)

	c.Observability.Tracing.Enabled = true
	assert.Equal(t, "otel:4318", FromCentralConfig(c).OTLPEndpoint)
}

func TestInitTelemetryWithoutExporter(t *testing.T) {
	p, err := InitTelemetry(context.Background(), Config{ServiceName: "pdp-test"})
	require.NoError(t, err)
	require.NotNil(t, p.PrometheusExporter)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestFiberMiddlewarePassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(FiberMiddleware())
	app.Get("/ping", func(c fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/boom", func(c fiber.Ctx) error { return fiber.ErrBadGateway })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, 502, resp.StatusCode)
}

func TestReferralMetricsNilSafe(t *testing.T) {
	var m *ReferralMetrics
	m.Created(context.Background(), "ROUTINE", true)
	m.Transitioned(context.Background(), "ACTIVE", "COMPLETED")
	m.Expired(context.Background(), 3)

	m, err := NewReferralMetrics()
	require.NoError(t, err)
	m.Created(context.Background(), "URGENT", false)
}

func TestFiberMiddlewareSkipsProbes(t *testing.T) {
	app := fiber.New()
	app.Use(FiberMiddleware())
	app.Get("/livez", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/livez", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Trace-Id"))
}
