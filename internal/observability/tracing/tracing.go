package tracing

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Init sets the global tracer provider, exporting spans over OTLP HTTP to
// the collector named by OTEL_EXPORTER_OTLP_ENDPOINT. Without that variable
// tracing stays off and the returned shutdown is a no-op.
func Init(ctx context.Context, logger *slog.Logger, serviceName, environment string) (func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		logger.Info("span export disabled, no collector endpoint configured")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.DeploymentEnvironment(environment),
	))
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(samplerFor(environment)),
	)
	otel.SetTracerProvider(tp)

	logger.Info("span export enabled",
		slog.String("endpoint", endpoint),
		slog.String("environment", environment),
	)
	return tp.Shutdown, nil
}

// samplerFor keeps every span outside production and a tenth of traces in
// production, where listing traffic dominates.
func samplerFor(environment string) trace.Sampler {
	if environment == "production" {
		return trace.ParentBased(trace.TraceIDRatioBased(0.1))
	}
	return trace.AlwaysSample()
}
