// Package telemetry installs the global OpenTelemetry tracer and logger
// providers, exporting over OTLP/HTTP.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	defaultServiceName    = "gamecore"
	defaultServiceVersion = "1.0.0"
	defaultTimeout        = 5 * time.Second
)

var (
	mut            sync.Mutex                //nolint:gochecknoglobals
	tracerProvider *sdktrace.TracerProvider  //nolint:gochecknoglobals
	loggerProvider *sdklog.LoggerProvider    //nolint:gochecknoglobals
)

// Config holds the OpenTelemetry configuration.
type Config struct {
	Enabled        bool   `json:"enabled"                  yaml:"enabled"`
	ServiceName    string `json:"serviceName,omitempty"    yaml:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty" yaml:"serviceVersion,omitempty"`
	Environment    string `json:"environment,omitempty"    yaml:"environment,omitempty"`
	// Endpoint is the OTLP/HTTP traces URL, e.g. http://localhost:4318/v1/traces.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// LogsEndpoint is the OTLP/HTTP logs URL. Logs are not exported when empty.
	LogsEndpoint string        `json:"logsEndpoint,omitempty" yaml:"logsEndpoint,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"      yaml:"timeout,omitempty"`
}

func (c *Config) withDefaults() Config {
	out := *c

	if out.ServiceName == "" {
		out.ServiceName = defaultServiceName
	}

	if out.ServiceVersion == "" {
		out.ServiceVersion = defaultServiceVersion
	}

	if out.Timeout <= 0 {
		out.Timeout = defaultTimeout
	}

	return out
}

// Initialize sets up OpenTelemetry tracing, and log export if configured.
// It is a no-op when telemetry is disabled or no endpoint is set.
func Initialize(ctx context.Context, config *Config) error {
	if config == nil || !config.Enabled {
		slog.Info("OpenTelemetry is disabled")

		return nil
	}

	if config.Endpoint == "" {
		slog.Warn("OpenTelemetry endpoint not configured, tracing will be disabled")

		return nil
	}

	cfg := config.withDefaults()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return err
	}

	traceExporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.Endpoint),
		otlptracehttp.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	var lp *sdklog.LoggerProvider

	if cfg.LogsEndpoint != "" {
		logExporter, err := otlploghttp.New(ctx,
			otlploghttp.WithEndpointURL(cfg.LogsEndpoint),
			otlploghttp.WithTimeout(cfg.Timeout),
		)
		if err != nil {
			_ = tp.Shutdown(ctx)

			return fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}

		lp = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)
	}

	install(tp, lp)

	slog.Info("OpenTelemetry initialized",
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"environment", cfg.Environment,
		"endpoint", cfg.Endpoint,
		"logs_endpoint", cfg.LogsEndpoint,
	)

	return nil
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

// install makes tp and lp (if not nil) the global providers.
func install(tp *sdktrace.TracerProvider, lp *sdklog.LoggerProvider) {
	mut.Lock()
	defer mut.Unlock()

	tracerProvider = tp
	otel.SetTracerProvider(tp)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if lp != nil {
		loggerProvider = lp
		global.SetLoggerProvider(lp)
	}
}

// Shutdown flushes and shuts down the providers installed by Initialize.
func Shutdown(ctx context.Context) error {
	mut.Lock()
	defer mut.Unlock()

	var errs []error

	if tracerProvider != nil {
		slog.Info("Shutting down OpenTelemetry tracer provider")

		errs = append(errs, tracerProvider.Shutdown(ctx))
		tracerProvider = nil
	}

	if loggerProvider != nil {
		errs = append(errs, loggerProvider.Shutdown(ctx))
		loggerProvider = nil
	}

	return errors.Join(errs...)
}
