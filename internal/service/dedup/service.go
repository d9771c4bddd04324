// Package dedup removes duplicate check-ins. A duplicate is any event that
// shares (date, course, student) with an earlier one; the earliest timestamp
// is kept, ties broken by ascending event id so repeated runs keep the same
// record.
package dedup

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/campuseye/attendance-engine/internal/domain"
	"github.com/campuseye/attendance-engine/internal/observability/metrics"
	"github.com/campuseye/attendance-engine/internal/observability/tracing"
	"github.com/campuseye/attendance-engine/internal/service/batch"
	"github.com/campuseye/attendance-engine/internal/service/session"
)

type Service struct {
	store         domain.EventStore
	classifier    *session.Classifier
	engineMetrics *metrics.EngineMetrics
	loc           *time.Location
	now           func() time.Time
}

func NewService(
	store domain.EventStore,
	classifier *session.Classifier,
	engineMetrics *metrics.EngineMetrics,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:         store,
		classifier:    classifier,
		engineMetrics: engineMetrics,
		loc:           loc,
		now:           time.Now,
	}
}

// BuildPlan groups events by dedup key and marks everything but the earliest
// of each group for deletion. Pure: no store access.
//
// In today-only mode an event is only considered when it belongs to today,
// sits inside a session window, and that session's cutoff has already
// passed. Events in a still-open session are untouchable, so a run fired
// mid-morning cannot delete re-check-ins that are still arriving.
func (s *Service) BuildPlan(events []*domain.AttendanceEvent, mode Mode, now time.Time) Plan {
	plan := Plan{Examined: len(events)}
	today := now.In(s.loc).Format(domain.DateLayout)

	groups := make(map[domain.DedupKey][]*domain.AttendanceEvent)
	for _, e := range events {
		if e.Malformed() {
			continue
		}

		if mode == ModeTodayOnly {
			if e.Date != today {
				continue
			}
			sess := s.classifier.Classify(e.Timestamp.In(s.loc))
			if sess.IsNone() {
				continue
			}
			if !s.classifier.CutoffElapsed(sess, now.In(s.loc)) {
				continue
			}
		}

		key := e.DedupKey()
		groups[key] = append(groups[key], e)
	}

	plan.Groups = len(groups)

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}

		sort.Slice(group, func(i, j int) bool {
			if group[i].Timestamp.Equal(group[j].Timestamp) {
				return group[i].ID < group[j].ID
			}
			return group[i].Timestamp.Before(group[j].Timestamp)
		})

		plan.DuplicateGroups++
		plan.KeptIDs = append(plan.KeptIDs, group[0].ID)
		for _, dup := range group[1:] {
			plan.DeleteIDs = append(plan.DeleteIDs, dup.ID)
		}
	}

	// Deterministic delete order regardless of map iteration.
	sort.Strings(plan.DeleteIDs)
	sort.Strings(plan.KeptIDs)

	return plan
}

// Run queries the store, builds the plan and deletes the duplicates in
// chunks of the store's batch limit. A chunk that fails after retries stops
// the run; the returned result still reports what was deleted.
func (s *Service) Run(ctx context.Context, mode Mode) (*Result, error) {
	now := s.now().In(s.loc)
	today := now.Format(domain.DateLayout)

	ctx, span := tracing.StartDedupRunSpan(ctx, string(mode), today)
	defer span.End()

	started := time.Now()

	var filter domain.EventFilter
	if mode == ModeTodayOnly {
		filter.Date = today
	}

	events, err := s.store.Query(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query events for dedup",
			slog.String("mode", string(mode)),
			slog.String("error", err.Error()),
		)
		tracing.RecordDedupRunResult(span, 0, 0, 0, err)
		return nil, err
	}

	plan := s.BuildPlan(events, mode, now)

	result := &Result{
		Mode:            mode,
		Date:            today,
		Examined:        plan.Examined,
		Groups:          plan.Groups,
		DuplicateGroups: plan.DuplicateGroups,
	}

	if len(plan.DeleteIDs) == 0 {
		result.NoOp = true
		slog.InfoContext(ctx, "dedup run found nothing to delete",
			slog.String("mode", string(mode)),
			slog.Int("examined", plan.Examined),
			slog.Int("groups", plan.Groups),
		)
		tracing.RecordDedupRunResult(span, plan.Examined, 0, 0, nil)
		return result, nil
	}

	batchResult, err := batch.Execute(ctx, "dedup_delete", plan.DeleteIDs, s.store.BatchLimit(), batch.Options{},
		func(ctx context.Context, chunk []string) error {
			return s.store.DeleteBatch(ctx, chunk)
		})

	result.Deleted = batchResult.Applied
	result.ChunksOK = batchResult.ChunksOK
	result.ChunksFailed = batchResult.ChunksFailed

	if s.engineMetrics != nil {
		s.engineMetrics.RecordDuplicatesDeleted(ctx, string(mode), result.Deleted)
		s.engineMetrics.RecordDedupRunDuration(ctx, string(mode), time.Since(started))
	}

	if err != nil {
		var partial *domain.PartialFailureError
		if errors.As(err, &partial) {
			slog.ErrorContext(ctx, "dedup run partially failed",
				slog.String("mode", string(mode)),
				slog.Int("deleted", partial.Applied),
				slog.Int("chunks_ok", partial.ChunksOK),
				slog.Int("chunks_failed", partial.ChunksFailed),
				slog.String("error", partial.Error()),
			)
		}
		tracing.RecordDedupRunResult(span, plan.Examined, plan.DuplicateGroups, result.Deleted, err)
		return result, err
	}

	slog.InfoContext(ctx, "dedup run completed",
		slog.String("mode", string(mode)),
		slog.Int("examined", plan.Examined),
		slog.Int("duplicate_groups", plan.DuplicateGroups),
		slog.Int("deleted", result.Deleted),
	)
	tracing.RecordDedupRunResult(span, plan.Examined, plan.DuplicateGroups, result.Deleted, nil)

	return result, nil
}

// PurgeNoonBreak deletes every check-in that landed inside the 11:46-13:00
// noon break of the given day. Those records are structurally invalid; no
// earliest-wins selection applies.
func (s *Service) PurgeNoonBreak(ctx context.Context, date string) (*PurgeResult, error) {
	if date == "" {
		date = s.now().In(s.loc).Format(domain.DateLayout)
	}
	if _, err := time.ParseInLocation(domain.DateLayout, date, s.loc); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartNoonPurgeSpan(ctx, date)
	defer span.End()

	events, err := s.store.Query(ctx, domain.EventFilter{Date: date})
	if err != nil {
		slog.ErrorContext(ctx, "failed to query events for noon purge",
			slog.String("date", date),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	result := &PurgeResult{Date: date, Examined: len(events)}

	var purgeIDs []string
	for _, e := range events {
		if e.Malformed() {
			continue
		}
		if s.classifier.InNoonBreak(e.Timestamp.In(s.loc)) {
			purgeIDs = append(purgeIDs, e.ID)
		}
	}
	sort.Strings(purgeIDs)

	if len(purgeIDs) == 0 {
		slog.InfoContext(ctx, "noon purge found nothing to delete",
			slog.String("date", date),
			slog.Int("examined", result.Examined),
		)
		return result, nil
	}

	batchResult, err := batch.Execute(ctx, "noon_purge", purgeIDs, s.store.BatchLimit(), batch.Options{},
		func(ctx context.Context, chunk []string) error {
			return s.store.DeleteBatch(ctx, chunk)
		})

	result.Purged = batchResult.Applied
	result.ChunksOK = batchResult.ChunksOK
	result.ChunksFailed = batchResult.ChunksFailed

	if s.engineMetrics != nil && result.Purged > 0 {
		s.engineMetrics.RecordDuplicatesDeleted(ctx, "noon-purge", result.Purged)
	}

	if err != nil {
		return result, err
	}

	slog.InfoContext(ctx, "noon purge completed",
		slog.String("date", date),
		slog.Int("purged", result.Purged),
	)

	return result, nil
}
