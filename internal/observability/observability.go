// Package observability wires the process-wide logger, tracer provider and
// meter provider. Exporter selection is platform-split: OTLP over HTTP for
// local/container runs, Google Cloud exporters under the gcloud build tag.
package observability

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/campuseye/attendance-engine/internal/observability/logging"
)

type Config struct {
	ServiceName   string
	Version       string
	Environment   logging.Environment
	LogLevel      slog.Level
	SamplingRate  float64
	DefaultModule logging.Module
}

type Resources struct {
	logger         *slog.Logger
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

func (r *Resources) Logger() *slog.Logger {
	return r.logger
}

func (r *Resources) Shutdown(ctx context.Context) error {
	var errs []error
	if r.tracerProvider != nil {
		if err := r.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.meterProvider != nil {
		if err := r.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Init builds the logger and, when exporters are reachable, the otel
// providers. Exporter init failures disable telemetry rather than the
// process; batch jobs must run even when the collector is down.
func Init(ctx context.Context, cfg Config) (*Resources, error) {
	if cfg.SamplingRate <= 0 {
		cfg.SamplingRate = 1.0
	}

	handler := logging.NewHandler(cfg.LogLevel, cfg.Environment, cfg.DefaultModule)
	logger := slog.New(handler).With(
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.Version),
	)

	res := &Resources{logger: logger}

	otelRes, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp, mp, err := initProviders(ctx, cfg, otelRes)
	if err != nil {
		logger.Warn("telemetry exporters unavailable, continuing without",
			slog.String("error", err.Error()),
		)
		return res, nil
	}

	res.tracerProvider = tp
	res.meterProvider = mp
	if tp != nil {
		otel.SetTracerProvider(tp)
	}
	if mp != nil {
		otel.SetMeterProvider(mp)
	}

	return res, nil
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(serviceAttrs(cfg)...),
	)
}
