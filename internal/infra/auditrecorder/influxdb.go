//go:build !gcloud

package auditrecorder

import (
	"context"
	"log/slog"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/campuseye/attendance-engine/internal/domain"
)

type influxDBRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	org      string
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.AuditRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "reclassification audit recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		slog.WarnContext(ctx, "InfluxDB token or org not configured, audit recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder(), nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket)

	slog.InfoContext(ctx, "audit recorder initialized",
		slog.String("type", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client:   client,
		writeAPI: writeAPI,
		bucket:   cfg.InfluxDBBucket,
		org:      cfg.InfluxDBOrg,
	}, nil
}

func (r *influxDBRecorder) RecordReclassification(ctx context.Context, record *domain.ReclassificationRecord) error {
	fields := map[string]any{
		"examined":         record.Examined,
		"updated":          record.Updated,
		"skipped":          record.Skipped,
		"default_course":   record.DefaultCourse,
		"duration_seconds": record.FinishedAt.Sub(record.StartedAt).Seconds(),
	}
	for sess, count := range record.PerSession {
		fields["session_"+sess] = count
	}
	for block, count := range record.PerBlock {
		fields["block_"+strconv.Itoa(block)] = count
	}

	point := influxdb2.NewPoint(
		"reclassification_run",
		map[string]string{
			"run_id":   record.RunID,
			"semester": record.Semester,
		},
		fields,
		record.FinishedAt,
	)

	if err := r.writeAPI.WritePoint(ctx, point); err != nil {
		slog.WarnContext(ctx, "failed to write reclassification run to InfluxDB",
			slog.String("error", err.Error()),
			slog.String("run_id", record.RunID),
			slog.String("semester", record.Semester),
		)
	}

	return nil
}

func (r *influxDBRecorder) Flush(_ context.Context) error {
	return nil
}

func (r *influxDBRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
