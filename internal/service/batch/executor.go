// Package batch runs bulk store operations in chunks bounded by the backing
// store's atomic-batch limit, with bounded retry and per-chunk accounting.
// Dedup deletes and reclassification relabels both go through it.
package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/campuseye/attendance-engine/internal/domain"
)

const (
	defaultMaxRetries  = 3
	defaultBackoffBase = 100 * time.Millisecond
)

// Result accounts for one chunked run. Applied counts items in chunks that
// committed; a failed chunk contributes nothing to Applied.
type Result struct {
	Items        int
	Applied      int
	ChunksOK     int
	ChunksFailed int
}

// Options tunes a run. The zero value gets the defaults.
type Options struct {
	MaxRetries  int
	BackoffBase time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = defaultBackoffBase
	}
	return o
}

// Execute applies fn to items in chunks of at most size. Each chunk is
// retried with exponential backoff; a chunk that exhausts its retries stops
// the run and surfaces a *domain.PartialFailureError carrying exactly what
// was already applied, so the caller can resume the remainder.
func Execute[T any](ctx context.Context, op string, items []T, size int, opts Options, fn func(ctx context.Context, chunk []T) error) (Result, error) {
	result := Result{Items: len(items)}
	if len(items) == 0 {
		return result, nil
	}
	if size <= 0 {
		size = len(items)
	}
	opts = opts.withDefaults()

	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunk := items[start:end]

		if err := applyWithRetry(ctx, op, chunk, opts, fn); err != nil {
			result.ChunksFailed++
			return result, &domain.PartialFailureError{
				Op:           op,
				Applied:      result.Applied,
				ChunksOK:     result.ChunksOK,
				ChunksFailed: result.ChunksFailed,
				Err:          err,
			}
		}

		result.ChunksOK++
		result.Applied += len(chunk)
	}

	return result, nil
}

func applyWithRetry[T any](ctx context.Context, op string, chunk []T, opts Options, fn func(ctx context.Context, chunk []T) error) error {
	var lastErr error
	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * opts.BackoffBase
			slog.DebugContext(ctx, "retrying chunk",
				slog.String("op", op),
				slog.Int("chunk_size", len(chunk)),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := fn(ctx, chunk); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	return lastErr
}
