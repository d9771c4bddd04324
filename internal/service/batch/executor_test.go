package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campuseye/attendance-engine/internal/domain"
)

func fastOpts() Options {
	return Options{MaxRetries: 3, BackoffBase: time.Millisecond}
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a' + i%26))
	}
	return out
}

func TestExecute_ChunksBySize(t *testing.T) {
	tests := []struct {
		name       string
		items      int
		size       int
		wantChunks int
	}{
		{"empty input is a no-op", 0, 10, 0},
		{"single partial chunk", 3, 10, 1},
		{"exact multiple", 20, 10, 2},
		{"remainder chunk", 25, 10, 3},
		{"size one", 3, 1, 3},
		{"zero size falls back to one chunk", 7, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var chunks [][]string
			result, err := Execute(context.Background(), "test", ids(tt.items), tt.size, fastOpts(),
				func(_ context.Context, chunk []string) error {
					chunks = append(chunks, chunk)
					return nil
				})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(chunks) != tt.wantChunks {
				t.Errorf("got %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			if result.Applied != tt.items {
				t.Errorf("Applied = %d, want %d", result.Applied, tt.items)
			}
			if result.ChunksOK != tt.wantChunks || result.ChunksFailed != 0 {
				t.Errorf("chunk accounting = %d ok / %d failed, want %d / 0",
					result.ChunksOK, result.ChunksFailed, tt.wantChunks)
			}
		})
	}
}

func TestExecute_PartialFailureReportsApplied(t *testing.T) {
	boom := errors.New("store unavailable")
	calls := 0

	result, err := Execute(context.Background(), "delete events", ids(25), 10, fastOpts(),
		func(_ context.Context, chunk []string) error {
			calls++
			// Second chunk fails on every attempt.
			if calls > 1 {
				return boom
			}
			return nil
		})

	var partial *domain.PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if partial.Applied != 10 {
		t.Errorf("Applied = %d, want 10", partial.Applied)
	}
	if partial.ChunksOK != 1 || partial.ChunksFailed != 1 {
		t.Errorf("chunks = %d ok / %d failed, want 1 / 1", partial.ChunksOK, partial.ChunksFailed)
	}
	if !errors.Is(err, boom) {
		t.Error("underlying error should be preserved")
	}
	if result.Applied != 10 {
		t.Errorf("result.Applied = %d, want 10", result.Applied)
	}
}

func TestExecute_RetriesTransientFailure(t *testing.T) {
	attempts := 0

	result, err := Execute(context.Background(), "test", ids(5), 10, fastOpts(),
		func(_ context.Context, chunk []string) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("fn called %d times, want 3", attempts)
	}
	if result.Applied != 5 {
		t.Errorf("Applied = %d, want 5", result.Applied)
	}
}

func TestExecute_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	_, err := Execute(ctx, "test", ids(5), 10, fastOpts(),
		func(_ context.Context, chunk []string) error {
			cancel()
			return errors.New("force retry path")
		})

	var partial *domain.PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", partial.Err)
	}
}
