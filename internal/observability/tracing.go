// Package observability owns the request tracer and the Prometheus counters
// for sessions, goal metrics and the store.
package observability

import (
	"context"
	"fmt"
	"strings"

	"devhabit/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName         = "devhabit-api"
	instrumentationName = "devhabit"
)

// Exporters accepted in TRACING_EXPORTER.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Span attributes identifying what a request touched.
const (
	AttrUserID       = attribute.Key("devhabit.user.id")
	AttrTargetUserID = attribute.Key("devhabit.target_user.id")
	AttrGoalID       = attribute.Key("devhabit.goal.id")
	AttrGoalCategory = attribute.Key("devhabit.goal.category")
	AttrResourceID   = attribute.Key("devhabit.resource.id")
)

var tracer = otel.Tracer(instrumentationName)

// TracingConfig holds configuration for initializing the tracer.
type TracingConfig struct {
	ServiceVersion string
	Environment    string
	Enabled        bool
	Exporter       string
	OTLPEndpoint   string
	SamplerRatio   float64
}

// TracingConfigFrom reads the TRACING_* settings.
func TracingConfigFrom(cfg *config.Config, version string) TracingConfig {
	return TracingConfig{
		ServiceVersion: version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	}
}

func (c TracingConfig) exporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(strings.TrimSpace(c.Exporter)) {
	case ExporterOTLP:
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(c.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
	case "", ExporterStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown TRACING_EXPORTER %q", c.Exporter)
	}
}

// sampler keeps every trace unless a ratio below one is configured, and
// always follows the caller's sampling decision.
func (c TracingConfig) sampler() sdktrace.Sampler {
	if c.SamplerRatio <= 0 || c.SamplerRatio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SamplerRatio))
}

// InitTracing installs the W3C propagator and, when enabled, an exporting
// tracer provider. The returned function flushes and stops the provider.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := cfg.exporter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracing exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler()),
	)
	otel.SetTracerProvider(tp)
	UseTracerProvider(tp)
	return tp.Shutdown, nil
}

// UseTracerProvider points the request and service spans at tp.
func UseTracerProvider(tp trace.TracerProvider) {
	tracer = tp.Tracer(instrumentationName)
}

// StartRequestSpan starts the server span for an inbound HTTP request.
func StartRequestSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindServer), trace.WithAttributes(attrs...))
}

// StartSpan starts an internal span named after a service operation.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// FailSpan marks span as failed with err.
func FailSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
