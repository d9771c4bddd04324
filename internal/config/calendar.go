package config

import (
	"os"
	"strconv"
	"time"
)

const (
	calendarCacheTTLEnv = "CALENDAR_CACHE_TTL_SECONDS"

	defaultCalendarCacheTTL = 60 * time.Second
)

type CalendarConfig struct {
	CacheTTL time.Duration
}

func LoadCalendarConfig() *CalendarConfig {
	ttl := defaultCalendarCacheTTL
	if v := os.Getenv(calendarCacheTTLEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ttl = time.Duration(parsed) * time.Second
		}
	}
	return &CalendarConfig{CacheTTL: ttl}
}
