package domain

import "context"

//go:generate mockgen -source=config_store.go -destination=config_store_mock.go -package=domain

// ConfigStore is the authoritative remote store for the block calendar.
// Get returns ErrConfigNotFound on a clean miss.
type ConfigStore interface {
	Get(ctx context.Context) (*CalendarConfig, error)
	Set(ctx context.Context, cfg *CalendarConfig, merge bool) error
}

// ConfigCache is the durable process-local cache mirrored from the remote
// store. It is a plain key/value blob store, not transactional with the
// remote. Get returns ErrConfigNotFound on a miss.
type ConfigCache interface {
	Get(ctx context.Context) (*CalendarConfig, error)
	Set(ctx context.Context, cfg *CalendarConfig) error
}
