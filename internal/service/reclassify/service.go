// Package reclassify relabels stored events from the current block calendar.
// It targets events that do not yet carry a well-formed block course code:
// legacy labels and DEFAULT_COURSE fallbacks from before a calendar was
// configured.
package reclassify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/campuseye/attendance-engine/internal/domain"
	"github.com/campuseye/attendance-engine/internal/observability/metrics"
	"github.com/campuseye/attendance-engine/internal/observability/tracing"
	"github.com/campuseye/attendance-engine/internal/service/batch"
	"github.com/campuseye/attendance-engine/internal/service/calendarcache"
	"github.com/campuseye/attendance-engine/internal/service/course"
)

// Result accounts for one reclassification run.
type Result struct {
	RunID         string
	Semester      string
	Examined      int
	Updated       int
	Skipped       int
	DefaultCourse int
	PerSession    map[string]int
	PerBlock      map[int]int
	ChunksOK      int
	ChunksFailed  int
}

type fieldWrite struct {
	id     string
	fields domain.EventFieldUpdate
}

type Service struct {
	store         domain.EventStore
	cache         *calendarcache.Cache
	assigner      *course.Assigner
	recorder      domain.AuditRecorder
	engineMetrics *metrics.EngineMetrics
	loc           *time.Location
	now           func() time.Time
}

func NewService(
	store domain.EventStore,
	cache *calendarcache.Cache,
	assigner *course.Assigner,
	recorder domain.AuditRecorder,
	engineMetrics *metrics.EngineMetrics,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:         store,
		cache:         cache,
		assigner:      assigner,
		recorder:      recorder,
		engineMetrics: engineMetrics,
		loc:           loc,
		now:           time.Now,
	}
}

// Run relabels every event inside the semester's block date span. Events
// already carrying a block course code are skipped, which makes repeated
// runs idempotent. A missing calendar entry for the semester is an error,
// not a silent no-op.
func (s *Service) Run(ctx context.Context, semester, runID string) (*Result, error) {
	if !domain.KnownSemester(semester) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSemester, semester)
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	ctx, span := tracing.StartReclassifySpan(ctx, semester)
	defer span.End()

	startedAt := s.now()

	load := s.cache.Load(ctx)
	span.AddEvent("calendar loaded")
	if load.Err != nil {
		slog.WarnContext(ctx, "calendar stores unavailable for reclassification",
			slog.String("run_id", runID),
			slog.String("error", load.Err.Error()),
		)
	}

	spanRange, ok := load.Config.Span(semester)
	if !ok {
		err := fmt.Errorf("%w: no calendar blocks for %s", domain.ErrConfigNotFound, semester)
		tracing.RecordReclassifyResult(span, 0, 0, 0, err)
		return nil, err
	}

	events, err := s.store.Query(ctx, domain.EventFilter{
		DateFrom: spanRange.Start,
		DateTo:   spanRange.End,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to query events for reclassification",
			slog.String("run_id", runID),
			slog.String("semester", semester),
			slog.String("error", err.Error()),
		)
		tracing.RecordReclassifyResult(span, 0, 0, 0, err)
		return nil, err
	}

	result := &Result{
		RunID:      runID,
		Semester:   semester,
		Examined:   len(events),
		PerSession: make(map[string]int),
		PerBlock:   make(map[int]int),
	}

	var writes []fieldWrite
	for _, e := range events {
		if e.Malformed() {
			result.Skipped++
			continue
		}
		if domain.IsBlockLabel(e.CourseID) {
			result.Skipped++
			continue
		}

		assignment := s.assigner.Assign(e.Timestamp.In(s.loc), e.Date, load.Config)
		if s.engineMetrics != nil {
			sess := domain.SessionNone
			if assignment.Session != nil {
				sess = *assignment.Session
			}
			s.engineMetrics.RecordClassification(ctx, sess.String())
		}

		if assignment.Equal(e) {
			result.Skipped++
			continue
		}

		if assignment.CourseID == domain.DefaultCourseID {
			result.DefaultCourse++
		} else {
			if assignment.Session != nil {
				result.PerSession[assignment.Session.String()]++
			}
			if assignment.Block != nil {
				result.PerBlock[*assignment.Block]++
			}
		}

		writes = append(writes, fieldWrite{id: e.ID, fields: assignment.FieldUpdate()})
	}

	batchResult, batchErr := batch.Execute(ctx, "reclassify_update", writes, s.store.BatchLimit(), batch.Options{},
		func(ctx context.Context, chunk []fieldWrite) error {
			for _, w := range chunk {
				if err := s.store.UpdateFields(ctx, w.id, w.fields); err != nil {
					return err
				}
			}
			return nil
		})

	result.Updated = batchResult.Applied
	result.ChunksOK = batchResult.ChunksOK
	result.ChunksFailed = batchResult.ChunksFailed

	finishedAt := s.now()

	if s.engineMetrics != nil {
		s.engineMetrics.RecordRelabelsApplied(ctx, semester, result.Updated)
		s.engineMetrics.RecordReclassifyRunDuration(ctx, semester, finishedAt.Sub(startedAt))
	}

	s.recordAudit(ctx, result, startedAt, finishedAt)

	if batchErr != nil {
		slog.ErrorContext(ctx, "reclassification partially failed",
			slog.String("run_id", runID),
			slog.String("semester", semester),
			slog.Int("updated", result.Updated),
			slog.Int("chunks_failed", result.ChunksFailed),
			slog.String("error", batchErr.Error()),
		)
		tracing.RecordReclassifyResult(span, result.Examined, result.Updated, result.Skipped, batchErr)
		return result, batchErr
	}

	slog.InfoContext(ctx, "reclassification completed",
		slog.String("run_id", runID),
		slog.String("semester", semester),
		slog.Int("examined", result.Examined),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped),
		slog.Int("default_course", result.DefaultCourse),
	)
	tracing.RecordReclassifyResult(span, result.Examined, result.Updated, result.Skipped, nil)

	return result, nil
}

// recordAudit is best effort: a dead audit backend never fails the run.
func (s *Service) recordAudit(ctx context.Context, result *Result, startedAt, finishedAt time.Time) {
	if s.recorder == nil {
		return
	}

	record := &domain.ReclassificationRecord{
		RunID:         result.RunID,
		Semester:      result.Semester,
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
		Examined:      result.Examined,
		Updated:       result.Updated,
		Skipped:       result.Skipped,
		DefaultCourse: result.DefaultCourse,
		PerSession:    result.PerSession,
		PerBlock:      result.PerBlock,
	}

	if err := s.recorder.RecordReclassification(ctx, record); err != nil {
		slog.WarnContext(ctx, "failed to record reclassification audit",
			slog.String("run_id", result.RunID),
			slog.String("error", err.Error()),
		)
	}
}
