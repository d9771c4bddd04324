// Package calendarcache layers the block calendar configuration: an in-memory
// TTL cache in front of the durable local cache in front of the authoritative
// remote store. Loads are fail-open so classification never blocks on a store
// outage.
package calendarcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/campuseye/attendance-engine/internal/domain"
	"github.com/campuseye/attendance-engine/internal/observability/metrics"
	"github.com/campuseye/attendance-engine/internal/observability/tracing"
)

// Source identifies which layer served a calendar load.
type Source string

const (
	SourceMemory      Source = "memory"
	SourceRemote      Source = "remote"
	SourceLocal       Source = "local"
	SourceAbsent      Source = "absent"
	SourceUnavailable Source = "unavailable"
)

const (
	memKey          = "block_calendar"
	refreshGroupKey = "refresh"

	maxRemoteRetries = 3
	backoffBase      = 100 * time.Millisecond
)

// LoadResult carries the served config alongside where it came from. Config
// is never nil; on SourceAbsent and SourceUnavailable it is empty and Err
// holds the underlying failure for the latter.
type LoadResult struct {
	Config *domain.CalendarConfig
	Source Source
	Err    error
}

type Cache struct {
	remote domain.ConfigStore
	local  domain.ConfigCache

	mem   *gocache.Cache
	group singleflight.Group

	metrics *metrics.EngineMetrics
	logger  *slog.Logger
}

func New(remote domain.ConfigStore, local domain.ConfigCache, ttl time.Duration, engineMetrics *metrics.EngineMetrics, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		remote:  remote,
		local:   local,
		mem:     gocache.New(ttl, 2*ttl),
		metrics: engineMetrics,
		logger:  logger,
	}
}

// Load returns the current calendar config. It never returns an error to the
// caller: a total outage yields an empty config with SourceUnavailable so
// events degrade to the default course instead of failing.
func (c *Cache) Load(ctx context.Context) LoadResult {
	if cached, ok := c.mem.Get(memKey); ok {
		if cfg, ok := cached.(*domain.CalendarConfig); ok {
			c.recordLookup(ctx, SourceMemory)
			return LoadResult{Config: cfg, Source: SourceMemory}
		}
	}

	v, _, _ := c.group.Do(refreshGroupKey, func() (any, error) {
		return c.refresh(ctx), nil
	})

	result := v.(LoadResult)
	c.recordLookup(ctx, result.Source)
	return result
}

// refresh walks remote then local, write-through caching on the way back up.
func (c *Cache) refresh(ctx context.Context) LoadResult {
	ctx, span := tracing.StartConfigRefreshSpan(ctx)
	defer span.End()

	cfg, remoteErr := c.getRemote(ctx)
	if remoteErr == nil {
		c.mem.SetDefault(memKey, cfg)
		c.storeLocal(ctx, cfg)
		tracing.RecordConfigRefreshResult(span, string(SourceRemote), nil)
		return LoadResult{Config: cfg, Source: SourceRemote}
	}

	if c.local != nil {
		localCfg, localErr := c.local.Get(ctx)
		if localErr == nil {
			c.mem.SetDefault(memKey, localCfg)
			if errors.Is(remoteErr, domain.ErrConfigNotFound) {
				// Remote cleanly empty but a durable copy survives locally:
				// migrate it up so the remote is authoritative again.
				c.migrateToRemote(ctx, localCfg)
			} else {
				c.logger.Warn("calendar remote unavailable, serving local copy",
					slog.String("error", remoteErr.Error()),
				)
			}
			tracing.RecordConfigRefreshResult(span, string(SourceLocal), nil)
			return LoadResult{Config: localCfg, Source: SourceLocal}
		}
		if !errors.Is(localErr, domain.ErrConfigNotFound) {
			c.logger.Warn("calendar local cache read failed",
				slog.String("error", localErr.Error()),
			)
		}
	}

	empty := domain.NewCalendarConfig()
	if errors.Is(remoteErr, domain.ErrConfigNotFound) {
		// No config anywhere: a clean absence, cached so we do not hammer
		// the stores once per event.
		c.mem.SetDefault(memKey, empty)
		tracing.RecordConfigRefreshResult(span, string(SourceAbsent), nil)
		return LoadResult{Config: empty, Source: SourceAbsent}
	}

	tracing.RecordConfigRefreshResult(span, string(SourceUnavailable), remoteErr)
	return LoadResult{Config: empty, Source: SourceUnavailable, Err: remoteErr}
}

func (c *Cache) getRemote(ctx context.Context) (*domain.CalendarConfig, error) {
	if c.remote == nil {
		return nil, domain.ErrConfigNotFound
	}

	var lastErr error
	for attempt := 0; attempt < maxRemoteRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		cfg, err := c.remote.Get(ctx)
		if err == nil {
			return cfg, nil
		}
		if errors.Is(err, domain.ErrConfigNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Cache) migrateToRemote(ctx context.Context, cfg *domain.CalendarConfig) {
	if c.remote == nil || cfg.Empty() {
		return
	}
	if err := c.remote.Set(ctx, cfg, false); err != nil {
		c.logger.Warn("calendar migration to remote failed",
			slog.String("error", err.Error()),
		)
	}
}

func (c *Cache) storeLocal(ctx context.Context, cfg *domain.CalendarConfig) {
	if c.local == nil {
		return
	}
	if err := c.local.Set(ctx, cfg); err != nil {
		c.logger.Warn("calendar local cache write failed",
			slog.String("error", err.Error()),
		)
	}
}

// Save validates and merges one semester's blocks into the remote store,
// then refreshes the cache layers with the merged config.
func (c *Cache) Save(ctx context.Context, semester string, blocks domain.SemesterBlocks) (*domain.CalendarConfig, error) {
	if !domain.KnownSemester(semester) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSemester, semester)
	}
	if want := domain.BlocksPerSemester[semester]; len(blocks) != want {
		return nil, fmt.Errorf("%w: semester %s requires %d blocks, got %d", domain.ErrInvalidCalendar, semester, want, len(blocks))
	}
	for n, r := range blocks {
		if n < 1 {
			return nil, fmt.Errorf("%w: semester %s: block number %d out of range", domain.ErrInvalidCalendar, semester, n)
		}
		if !r.Valid() {
			return nil, fmt.Errorf("%w: semester %s block %d: invalid range %s..%s", domain.ErrInvalidCalendar, semester, n, r.Start, r.End)
		}
	}

	if c.remote == nil {
		return nil, fmt.Errorf("calendar remote store not configured")
	}

	update := domain.NewCalendarConfig()
	update.Merge(semester, blocks)

	var lastErr error
	for attempt := 0; attempt < maxRemoteRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		if lastErr = c.remote.Set(ctx, update, true); lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("persist calendar for %s: %w", semester, lastErr)
	}

	merged, err := c.remote.Get(ctx)
	if err != nil {
		// Write landed but the read-back failed; fall back to merging over
		// whatever we currently serve so the cache layers stay usable.
		merged = c.Load(ctx).Config.Clone()
		merged.Merge(semester, blocks)
	}

	c.mem.SetDefault(memKey, merged)
	c.storeLocal(ctx, merged)

	return merged, nil
}

// Invalidate drops the in-memory entry so the next Load refreshes from the
// stores.
func (c *Cache) Invalidate() {
	c.mem.Delete(memKey)
}

func (c *Cache) recordLookup(ctx context.Context, source Source) {
	if c.metrics != nil {
		c.metrics.RecordConfigLookup(ctx, string(source))
	}
}
