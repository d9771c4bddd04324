package domain

import (
	"context"
	"time"
)

// ReclassificationRecord summarizes one reclassification run for the audit
// log collaborator.
type ReclassificationRecord struct {
	RunID         string
	Semester      string
	StartedAt     time.Time
	FinishedAt    time.Time
	Examined      int
	Updated       int
	Skipped       int
	DefaultCourse int
	PerSession    map[string]int
	PerBlock      map[int]int
}

// AuditRecorder is the write-only audit log collaborator. Recording is best
// effort; implementations log and swallow backend errors.
type AuditRecorder interface {
	RecordReclassification(ctx context.Context, record *ReclassificationRecord) error
	Flush(ctx context.Context) error
	Close() error
}
