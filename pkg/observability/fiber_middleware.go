package observability

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/carolhungwt/physio-doctor-platform/pkg/reqctx"
)

const tracerName = "github.com/carolhungwt/physio-doctor-platform/pkg/observability"

// untracedPrefixes are probe and scrape paths that would otherwise drown
// the API traffic in the request metrics.
var untracedPrefixes = []string{"/livez", "/readyz", "/startupz", "/metrics"}

// FiberMiddleware opens a server span per API request and records request
// count and latency labelled by route template, never by raw path.
func FiberMiddleware() fiber.Handler {
	tracer := otel.Tracer(tracerName)
	meter := otel.Meter(tracerName)

	requests, _ := meter.Int64Counter("http_server_requests_total",
		metric.WithDescription("HTTP requests served"),
		metric.WithUnit("{request}"))
	latency, _ := meter.Float64Histogram("http_server_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"))

	return func(c fiber.Ctx) error {
		for _, p := range untracedPrefixes {
			if strings.HasPrefix(c.Path(), p) {
				return c.Next()
			}
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Context(), propagation.HeaderCarrier(c.GetReqHeaders()))
		ctx, span := tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Method()),
				attribute.String("url.path", c.Path()),
				attribute.String("client.address", c.IP()),
				attribute.String("user_agent.original", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		if id := reqctx.RequestIDFromContext(ctx); id != "" {
			span.SetAttributes(attribute.String("request.id", id))
		}
		if span.SpanContext().HasTraceID() {
			c.Set("X-Trace-Id", span.SpanContext().TraceID().String())
		}
		c.SetContext(ctx)

		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start).Seconds()

		// the route template is only known after routing
		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		status := c.Response().StatusCode()
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		if uid, ok := reqctx.UserIDFromContext(c.Context()); ok {
			span.SetAttributes(attribute.String("enduser.id", uid.String()))
		}

		attrs := metric.WithAttributes(
			attribute.String("http.request.method", c.Method()),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		requests.Add(ctx, 1, attrs)
		latency.Record(ctx, elapsed, attrs)

		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(status))
			if err != nil {
				span.RecordError(err)
			}
		}
		return err
	}
}
