package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/carolhungwt/physio-doctor-platform/config"
)

const shutdownGrace = 5 * time.Second

// Config is the subset of the central config telemetry needs.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// OTLPEndpoint is host:port of an OTLP/HTTP collector. Empty keeps
	// spans in-process (sampled but never exported).
	OTLPEndpoint string
	OTLPInsecure bool
	SamplingRate float64
}

func FromCentralConfig(c *config.Config) Config {
	cfg := Config{
		ServiceName:    c.Observability.ServiceName,
		ServiceVersion: c.Observability.ServiceVersion,
		Environment:    c.Server.Environment,
		SamplingRate:   c.Observability.Tracing.SamplingRate,
	}
	if c.Observability.Tracing.Enabled {
		cfg.OTLPEndpoint = c.Observability.Tracing.OTLPEndpoint
		cfg.OTLPInsecure = c.Observability.Tracing.OTLPInsecure
	}
	return cfg
}

type Provider struct {
	TracerProvider     *trace.TracerProvider
	MeterProvider      *metric.MeterProvider
	PrometheusExporter *prometheus.Exporter
}

// InitTelemetry installs the global tracer and meter providers and the W3C
// propagators. Metrics are exposed through the default prometheus registry.
func InitTelemetry(ctx context.Context, cfg Config) (*Provider, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes("",
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	tp, err := newTracerProvider(ctx, res, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := prometheus.New()
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithResource(res), metric.WithReader(exporter))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{TracerProvider: tp, MeterProvider: mp, PrometheusExporter: exporter}, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, cfg Config) (*trace.TracerProvider, error) {
	rate := cfg.SamplingRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}
	opts := []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(rate))),
	}

	if cfg.OTLPEndpoint != "" {
		exOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			exOpts = append(exOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, exOpts...)
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		opts = append(opts, trace.WithBatcher(exporter))
	}

	return trace.NewTracerProvider(opts...), nil
}

// Shutdown flushes pending spans and stops both providers, reporting every
// failure rather than the first.
func (p *Provider) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	return errors.Join(
		p.TracerProvider.Shutdown(ctx),
		p.MeterProvider.Shutdown(ctx),
	)
}
