package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const engineMeterName = "attendance.engine"

type EngineMetrics struct {
	eventsClassified  metric.Int64Counter
	duplicatesDeleted metric.Int64Counter
	relabelsApplied   metric.Int64Counter
	configLookups     metric.Int64Counter
	dedupRunDuration  metric.Float64Histogram
	relabelDuration   metric.Float64Histogram
}

func NewEngineMetrics() (*EngineMetrics, error) {
	meter := otel.Meter(engineMeterName)

	eventsClassified, err := meter.Int64Counter(
		"attendance_events_classified_total",
		metric.WithDescription("Total events run through the course code assigner"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	duplicatesDeleted, err := meter.Int64Counter(
		"attendance_duplicates_deleted_total",
		metric.WithDescription("Total duplicate check-ins deleted"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	relabelsApplied, err := meter.Int64Counter(
		"attendance_relabels_applied_total",
		metric.WithDescription("Total label rewrites applied by reclassification"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	configLookups, err := meter.Int64Counter(
		"attendance_calendar_lookups_total",
		metric.WithDescription("Calendar config loads by serving layer"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	dedupRunDuration, err := meter.Float64Histogram(
		"attendance_dedup_run_duration_seconds",
		metric.WithDescription("Deduplication run duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
		),
	)
	if err != nil {
		return nil, err
	}

	relabelDuration, err := meter.Float64Histogram(
		"attendance_reclassify_run_duration_seconds",
		metric.WithDescription("Reclassification run duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
		),
	)
	if err != nil {
		return nil, err
	}

	return &EngineMetrics{
		eventsClassified:  eventsClassified,
		duplicatesDeleted: duplicatesDeleted,
		relabelsApplied:   relabelsApplied,
		configLookups:     configLookups,
		dedupRunDuration:  dedupRunDuration,
		relabelDuration:   relabelDuration,
	}, nil
}

func (m *EngineMetrics) RecordClassification(ctx context.Context, session string) {
	m.eventsClassified.Add(ctx, 1, metric.WithAttributes(
		attribute.String("session", session),
	))
}

func (m *EngineMetrics) RecordDuplicatesDeleted(ctx context.Context, mode string, count int) {
	m.duplicatesDeleted.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("mode", mode),
	))
}

func (m *EngineMetrics) RecordRelabelsApplied(ctx context.Context, semester string, count int) {
	m.relabelsApplied.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("semester", semester),
	))
}

func (m *EngineMetrics) RecordConfigLookup(ctx context.Context, source string) {
	m.configLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
	))
}

func (m *EngineMetrics) RecordDedupRunDuration(ctx context.Context, mode string, duration time.Duration) {
	m.dedupRunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("mode", mode),
	))
}

func (m *EngineMetrics) RecordReclassifyRunDuration(ctx context.Context, semester string, duration time.Duration) {
	m.relabelDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("semester", semester),
	))
}
