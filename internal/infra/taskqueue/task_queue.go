package taskqueue

import "context"

//go:generate mockgen -source=task_queue.go -destination=mock.go -package=taskqueue

// TaskQueue defers a deduplication run until a session cutoff has passed.
type TaskQueue interface {
	RegisterDedupRun(ctx context.Context, task *DedupTask) (*TaskResponse, error)
	DeleteTask(ctx context.Context, taskID string) error
}
