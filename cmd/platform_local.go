//go:build !gcloud

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/campuseye/attendance-engine/internal/config"
	"github.com/campuseye/attendance-engine/internal/infra/taskqueue"
	"github.com/campuseye/attendance-engine/internal/observability"
	"github.com/campuseye/attendance-engine/internal/observability/logging"
)

func initTaskQueue(_ context.Context, cfg *config.Config) (taskqueue.TaskQueue, func() error, error) {
	if cfg.TaskQueue.EmulatorURL == "" {
		slog.Warn("TASK_QUEUE_EMULATOR_URL not set, dedup scheduling disabled")

		return nil, nil, nil
	}

	tq := taskqueue.NewEmulatorClient(
		cfg.TaskQueue.EmulatorURL,
		cfg.TaskQueue.QueueName,
		cfg.TaskQueue.TargetURL,
		cfg.TaskQueue.MaxRetries,
	)

	slog.Info("task queue initialized",
		slog.String("type", "emulator"),
		slog.String("url", cfg.TaskQueue.EmulatorURL),
		slog.String("queue", cfg.TaskQueue.QueueName),
	)

	return tq, nil, nil
}

func initObservability(ctx context.Context, cfg *config.Config) (*observability.Resources, error) {
	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "attendance-engine"
	}

	env := logging.EnvDev
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	return observability.Init(ctx, observability.Config{
		ServiceName:   serviceName,
		Version:       Version,
		Environment:   env,
		LogLevel:      cfg.LogLevel,
		SamplingRate:  1.0,
		DefaultModule: logging.Module("attendance-engine"),
	})
}
