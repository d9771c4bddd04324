package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/campuseye/attendance-engine/internal/infra/taskqueue"
	"github.com/campuseye/attendance-engine/internal/service/session"
)

func newTestScheduler(queue taskqueue.TaskQueue, now time.Time) *Scheduler {
	s := NewScheduler(queue, session.NewClassifier(), time.UTC, 5*time.Minute)
	s.now = func() time.Time { return now }
	return s
}

func TestScheduler_ScheduleToday_AllSessionsBeforeFirstCutoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queue := taskqueue.NewMockTaskQueue(ctrl)

	var registered []*taskqueue.DedupTask
	queue.EXPECT().
		RegisterDedupRun(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, task *taskqueue.DedupTask) (*taskqueue.TaskResponse, error) {
			registered = append(registered, task)
			return &taskqueue.TaskResponse{Name: task.RunID}, nil
		}).Times(3)

	s := newTestScheduler(queue, at("2025-04-10", "07:00"))

	results, err := s.ScheduleToday(context.Background())
	if err != nil {
		t.Fatalf("ScheduleToday: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	wantSchedule := map[string]string{
		"M": "2025-04-10 08:15",
		"A": "2025-04-10 13:45",
		"E": "2025-04-10 18:15",
	}
	for _, task := range registered {
		expected, ok := wantSchedule[task.Session]
		if !ok {
			t.Errorf("unexpected session %q registered", task.Session)
			continue
		}
		if got := task.ScheduleAt.Format("2006-01-02 15:04"); got != expected {
			t.Errorf("session %s scheduled at %s, want %s", task.Session, got, expected)
		}
		if task.Mode != string(ModeTodayOnly) {
			t.Errorf("session %s mode = %s, want %s", task.Session, task.Mode, ModeTodayOnly)
		}
		if task.Date != "2025-04-10" {
			t.Errorf("session %s date = %s, want 2025-04-10", task.Session, task.Date)
		}
	}
}

func TestScheduler_ScheduleToday_ElapsedCutoffsSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queue := taskqueue.NewMockTaskQueue(ctrl)

	// 14:00: morning and afternoon cutoffs (plus grace) are behind us.
	queue.EXPECT().
		RegisterDedupRun(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, task *taskqueue.DedupTask) (*taskqueue.TaskResponse, error) {
			if task.Session != "E" {
				t.Errorf("registered session %q, want only E", task.Session)
			}
			return &taskqueue.TaskResponse{Name: task.RunID}, nil
		}).Times(1)

	s := newTestScheduler(queue, at("2025-04-10", "14:00"))

	results, err := s.ScheduleToday(context.Background())
	if err != nil {
		t.Fatalf("ScheduleToday: %v", err)
	}

	skipped := 0
	for _, r := range results {
		if r.Skipped {
			skipped++
		}
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
}

func TestScheduler_ScheduleToday_QueueErrorSurfacesButContinues(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queue := taskqueue.NewMockTaskQueue(ctrl)

	queueErr := errors.New("queue unavailable")
	gomock.InOrder(
		queue.EXPECT().RegisterDedupRun(gomock.Any(), gomock.Any()).Return(nil, queueErr),
		queue.EXPECT().RegisterDedupRun(gomock.Any(), gomock.Any()).Return(&taskqueue.TaskResponse{Name: "t2"}, nil),
		queue.EXPECT().RegisterDedupRun(gomock.Any(), gomock.Any()).Return(&taskqueue.TaskResponse{Name: "t3"}, nil),
	)

	s := newTestScheduler(queue, at("2025-04-10", "07:00"))

	results, err := s.ScheduleToday(context.Background())
	if !errors.Is(err, queueErr) {
		t.Errorf("err = %v, want %v", err, queueErr)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].Skipped {
		t.Error("failed registration not marked skipped")
	}
	if results[1].Skipped || results[2].Skipped {
		t.Error("successful registrations marked skipped")
	}
}
