package config

import "errors"

var (
	ErrRedisAddrMissing  = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB    = errors.New("REDIS_DB must be a valid integer")
	ErrDatabaseDSNEmpty  = errors.New("DATABASE_DSN is required")
	ErrInvalidTimezone   = errors.New("ATTENDANCE_TZ is not a valid IANA timezone")
	ErrInvalidBatchLimit = errors.New("DEDUP_BATCH_LIMIT must be a positive integer")
)
