//go:build gcloud

package auditrecorder

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/campuseye/attendance-engine/internal/domain"
)

type bigQueryRecord struct {
	RecordedAt     time.Time `bigquery:"recorded_at"`
	RunID          string    `bigquery:"run_id"`
	Semester       string    `bigquery:"semester"`
	StartedAt      time.Time `bigquery:"started_at"`
	FinishedAt     time.Time `bigquery:"finished_at"`
	Examined       int64     `bigquery:"examined"`
	Updated        int64     `bigquery:"updated"`
	Skipped        int64     `bigquery:"skipped"`
	DefaultCourse  int64     `bigquery:"default_course"`
	MorningCount   int64     `bigquery:"morning_count"`
	AfternoonCount int64     `bigquery:"afternoon_count"`
	EveningCount   int64     `bigquery:"evening_count"`
}

type bigQueryRecorder struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
	dataset  string
	table    string
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.AuditRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "reclassification audit recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.BigQueryProjectID == "" {
		slog.WarnContext(ctx, "BigQuery project ID not configured, audit recording disabled")
		return NewNoopRecorder(), nil
	}

	client, err := bigquery.NewClient(ctx, cfg.BigQueryProjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create BigQuery client, audit recording disabled",
			slog.String("error", err.Error()),
			slog.String("project_id", cfg.BigQueryProjectID),
		)
		return NewNoopRecorder(), nil
	}

	table := client.Dataset(cfg.BigQueryDataset).Table(cfg.BigQueryTable)
	inserter := table.Inserter()

	slog.InfoContext(ctx, "audit recorder initialized",
		slog.String("type", "bigquery"),
		slog.String("project_id", cfg.BigQueryProjectID),
		slog.String("dataset", cfg.BigQueryDataset),
		slog.String("table", cfg.BigQueryTable),
	)

	return &bigQueryRecorder{
		client:   client,
		inserter: inserter,
		dataset:  cfg.BigQueryDataset,
		table:    cfg.BigQueryTable,
	}, nil
}

func (r *bigQueryRecorder) RecordReclassification(ctx context.Context, record *domain.ReclassificationRecord) error {
	row := &bigQueryRecord{
		RecordedAt:     time.Now(),
		RunID:          record.RunID,
		Semester:       record.Semester,
		StartedAt:      record.StartedAt,
		FinishedAt:     record.FinishedAt,
		Examined:       int64(record.Examined),
		Updated:        int64(record.Updated),
		Skipped:        int64(record.Skipped),
		DefaultCourse:  int64(record.DefaultCourse),
		MorningCount:   int64(record.PerSession["M"]),
		AfternoonCount: int64(record.PerSession["A"]),
		EveningCount:   int64(record.PerSession["E"]),
	}

	if err := r.inserter.Put(ctx, []*bigQueryRecord{row}); err != nil {
		slog.WarnContext(ctx, "failed to insert reclassification run to BigQuery",
			slog.String("error", err.Error()),
			slog.String("run_id", record.RunID),
		)
	}

	return nil
}

func (r *bigQueryRecorder) Flush(_ context.Context) error {
	return nil
}

func (r *bigQueryRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
