package tracer

import (
	"context"

	"multisite-be/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const tracerModule = "TRACER"

type Config struct {
	Enabled     bool
	Endpoint    string // host:port of an OTLP HTTP collector
	ServiceName string
	Environment string
}

// InitTracer installs a global tracer provider exporting over OTLP HTTP.
// The returned function flushes and stops it; it is a no-op when tracing is off.
func InitTracer(cfg Config, log logger.ILogger) func(context.Context) error {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if !cfg.Enabled {
		log.Info(tracerModule, "OpenTelemetry tracing is disabled (set OTEL_ENABLED=true to enable)", nil)
		return func(context.Context) error { return nil }
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4318"
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Warn(tracerModule, "Failed to create OTLP exporter, tracing disabled", map[string]interface{}{
			"endpoint": cfg.Endpoint,
			"error":    err.Error(),
		})
		return func(context.Context) error { return nil }
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			attribute.String("deployment.environment", cfg.Environment),
		)),
	)

	otel.SetTracerProvider(tp)
	log.Info(tracerModule, "OpenTelemetry tracer initialized", map[string]interface{}{
		"endpoint": cfg.Endpoint,
		"service":  cfg.ServiceName,
	})

	return tp.Shutdown
}
