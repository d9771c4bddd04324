package dedup

import "time"

// Mode selects the scope of a deduplication run.
type Mode string

const (
	// ModeTodayOnly deletes duplicates only for today's closed sessions.
	ModeTodayOnly Mode = "today-only"
	// ModeAllTime deletes duplicates across the whole store.
	ModeAllTime Mode = "all-time"
)

func (m Mode) Valid() bool {
	return m == ModeTodayOnly || m == ModeAllTime
}

// Plan is the pure output of duplicate grouping, before any deletion.
type Plan struct {
	Examined        int
	Groups          int
	DuplicateGroups int
	KeptIDs         []string
	DeleteIDs       []string
}

// Result accounts for one deduplication run.
type Result struct {
	Mode            Mode
	Date            string
	Examined        int
	Groups          int
	DuplicateGroups int
	Deleted         int
	ChunksOK        int
	ChunksFailed    int
	NoOp            bool
}

// PurgeResult accounts for one noon-break purge.
type PurgeResult struct {
	Date         string
	Examined     int
	Purged       int
	ChunksOK     int
	ChunksFailed int
}

// ScheduleResult is one deferred run registered (or skipped) by the
// scheduler.
type ScheduleResult struct {
	Session    string    `json:"session"`
	RunID      string    `json:"run_id"`
	ScheduleAt time.Time `json:"schedule_at,omitempty"`
	TaskName   string    `json:"task_name,omitempty"`
	Skipped    bool      `json:"skipped"`
	Reason     string    `json:"reason,omitempty"`
}
