package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const engineTracerName = "github.com/campuseye/attendance-engine/internal/service"

func EngineTracer() trace.Tracer {
	return otel.Tracer(engineTracerName)
}

func StartDedupRunSpan(ctx context.Context, mode, date string) (context.Context, trace.Span) {
	return EngineTracer().Start(ctx, "attendance.dedup_run",
		trace.WithAttributes(
			attribute.String("dedup.mode", mode),
			attribute.String("dedup.date", date),
		),
	)
}

func RecordDedupRunResult(span trace.Span, examined, duplicateGroups, deleted int, err error) {
	span.SetAttributes(
		attribute.Int("dedup.examined", examined),
		attribute.Int("dedup.duplicate_groups", duplicateGroups),
		attribute.Int("dedup.deleted", deleted),
	)
	setStatus(span, err)
}

func StartNoonPurgeSpan(ctx context.Context, date string) (context.Context, trace.Span) {
	return EngineTracer().Start(ctx, "attendance.noon_purge",
		trace.WithAttributes(
			attribute.String("purge.date", date),
		),
	)
}

func StartReclassifySpan(ctx context.Context, semester string) (context.Context, trace.Span) {
	return EngineTracer().Start(ctx, "attendance.reclassify_run",
		trace.WithAttributes(
			attribute.String("reclassify.semester", semester),
		),
	)
}

func RecordReclassifyResult(span trace.Span, examined, updated, skipped int, err error) {
	span.SetAttributes(
		attribute.Int("reclassify.examined", examined),
		attribute.Int("reclassify.updated", updated),
		attribute.Int("reclassify.skipped", skipped),
	)
	setStatus(span, err)
}

func StartConfigRefreshSpan(ctx context.Context) (context.Context, trace.Span) {
	return EngineTracer().Start(ctx, "attendance.calendar_refresh",
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func RecordConfigRefreshResult(span trace.Span, source string, err error) {
	span.SetAttributes(attribute.String("calendar.source", source))
	setStatus(span, err)
}

func setStatus(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
