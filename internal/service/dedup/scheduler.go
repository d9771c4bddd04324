package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campuseye/attendance-engine/internal/domain"
	"github.com/campuseye/attendance-engine/internal/infra/taskqueue"
	"github.com/campuseye/attendance-engine/internal/service/session"
)

// Scheduler registers one deferred today-only dedup run per session, fired
// just after that session's cutoff.
type Scheduler struct {
	queue      taskqueue.TaskQueue
	classifier *session.Classifier
	loc        *time.Location
	grace      time.Duration
	now        func() time.Time
}

func NewScheduler(queue taskqueue.TaskQueue, classifier *session.Classifier, loc *time.Location, grace time.Duration) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if grace <= 0 {
		grace = 5 * time.Minute
	}
	return &Scheduler{
		queue:      queue,
		classifier: classifier,
		loc:        loc,
		grace:      grace,
		now:        time.Now,
	}
}

// ScheduleToday enqueues a run for each session whose cutoff has not yet
// passed today. Already-elapsed cutoffs are skipped rather than fired
// immediately; a missed cutoff is caught by the next manual or scheduled
// run.
func (s *Scheduler) ScheduleToday(ctx context.Context) ([]ScheduleResult, error) {
	now := s.now().In(s.loc)
	today := now.Format(domain.DateLayout)

	results := make([]ScheduleResult, 0, len(domain.Sessions()))
	var firstErr error

	for _, sess := range domain.Sessions() {
		runID := fmt.Sprintf("dedup-%s-%s", today, sess)
		result := ScheduleResult{
			Session: string(sess),
			RunID:   runID,
		}

		cutoff, err := s.classifier.CutoffTime(sess, today, s.loc)
		if err != nil {
			result.Skipped = true
			result.Reason = err.Error()
			results = append(results, result)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		scheduleAt := cutoff.Add(s.grace)
		if !scheduleAt.After(now) {
			result.Skipped = true
			result.Reason = "cutoff already elapsed"
			results = append(results, result)
			continue
		}

		resp, err := s.queue.RegisterDedupRun(ctx, &taskqueue.DedupTask{
			RunID:      runID,
			ScheduleAt: scheduleAt,
			Mode:       string(ModeTodayOnly),
			Date:       today,
			Session:    string(sess),
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to schedule dedup run",
				slog.String("run_id", runID),
				slog.String("session", string(sess)),
				slog.String("error", err.Error()),
			)
			result.Skipped = true
			result.Reason = err.Error()
			results = append(results, result)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		result.ScheduleAt = scheduleAt
		result.TaskName = resp.Name
		results = append(results, result)

		slog.InfoContext(ctx, "dedup run scheduled",
			slog.String("run_id", runID),
			slog.String("session", string(sess)),
			slog.Time("schedule_at", scheduleAt),
		)
	}

	return results, firstErr
}
