package config

import (
	"os"
	"strconv"
	"time"
)

const (
	dedupBatchLimitEnv    = "DEDUP_BATCH_LIMIT"
	scheduleGraceEnv      = "DEDUP_SCHEDULE_GRACE_MINUTES"
	attendanceTimezoneEnv = "ATTENDANCE_TZ"

	defaultDedupBatchLimit = 500
	defaultScheduleGrace   = 5 * time.Minute
)

type DedupConfig struct {
	BatchLimit    int
	ScheduleGrace time.Duration
	Location      *time.Location
}

func LoadDedupConfig() (*DedupConfig, error) {
	batchLimit := defaultDedupBatchLimit
	if v := os.Getenv(dedupBatchLimitEnv); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidBatchLimit
		}
		batchLimit = parsed
	}

	grace := defaultScheduleGrace
	if v := os.Getenv(scheduleGraceEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			grace = time.Duration(parsed) * time.Minute
		}
	}

	loc := time.Local
	if v := os.Getenv(attendanceTimezoneEnv); v != "" {
		parsed, err := time.LoadLocation(v)
		if err != nil {
			return nil, ErrInvalidTimezone
		}
		loc = parsed
	}

	return &DedupConfig{
		BatchLimit:    batchLimit,
		ScheduleGrace: grace,
		Location:      loc,
	}, nil
}
