package calendarcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/campuseye/attendance-engine/internal/domain"
)

func testConfig() *domain.CalendarConfig {
	cfg := domain.NewCalendarConfig()
	cfg.Merge(domain.SemesterSpring, domain.SemesterBlocks{
		1: {Start: "2025-04-01", End: "2025-05-15"},
		2: {Start: "2025-05-16", End: "2025-06-30"},
		3: {Start: "2025-07-01", End: "2025-08-10"},
	})
	return cfg
}

func TestCache_Load_RemoteHitThenMemory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := domain.NewMockConfigStore(ctrl)
	local := domain.NewMockConfigCache(ctrl)

	cfg := testConfig()
	remote.EXPECT().Get(gomock.Any()).Return(cfg, nil).Times(1)
	local.EXPECT().Set(gomock.Any(), cfg).Return(nil).Times(1)

	cache := New(remote, local, time.Minute, nil, nil)

	ctx := context.Background()

	first := cache.Load(ctx)
	if first.Source != SourceRemote {
		t.Errorf("first load source = %s, want %s", first.Source, SourceRemote)
	}
	if first.Config.Empty() {
		t.Error("first load returned empty config")
	}

	second := cache.Load(ctx)
	if second.Source != SourceMemory {
		t.Errorf("second load source = %s, want %s", second.Source, SourceMemory)
	}
}

func TestCache_Load_RemoteMissFallsBackToLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := domain.NewMockConfigStore(ctrl)
	local := domain.NewMockConfigCache(ctrl)

	cfg := testConfig()
	remote.EXPECT().Get(gomock.Any()).Return(nil, domain.ErrConfigNotFound).Times(1)
	local.EXPECT().Get(gomock.Any()).Return(cfg, nil).Times(1)
	// The surviving local copy is migrated back up to the empty remote.
	remote.EXPECT().Set(gomock.Any(), cfg, false).Return(nil).Times(1)

	cache := New(remote, local, time.Minute, nil, nil)

	result := cache.Load(context.Background())
	if result.Source != SourceLocal {
		t.Errorf("source = %s, want %s", result.Source, SourceLocal)
	}
	if result.Config.Empty() {
		t.Error("expected local config, got empty")
	}
}

func TestCache_Load_NothingAnywhere(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := domain.NewMockConfigStore(ctrl)
	local := domain.NewMockConfigCache(ctrl)

	remote.EXPECT().Get(gomock.Any()).Return(nil, domain.ErrConfigNotFound).Times(1)
	local.EXPECT().Get(gomock.Any()).Return(nil, domain.ErrConfigNotFound).Times(1)

	cache := New(remote, local, time.Minute, nil, nil)

	result := cache.Load(context.Background())
	if result.Source != SourceAbsent {
		t.Errorf("source = %s, want %s", result.Source, SourceAbsent)
	}
	if result.Err != nil {
		t.Errorf("unexpected error: %v", result.Err)
	}
	if !result.Config.Empty() {
		t.Error("expected empty config")
	}

	// A clean absence is cached too.
	second := cache.Load(context.Background())
	if second.Source != SourceMemory {
		t.Errorf("second load source = %s, want %s", second.Source, SourceMemory)
	}
}

func TestCache_Load_RemoteDownLocalDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := domain.NewMockConfigStore(ctrl)
	local := domain.NewMockConfigCache(ctrl)

	remoteErr := errors.New("connection refused")
	remote.EXPECT().Get(gomock.Any()).Return(nil, remoteErr).Times(maxRemoteRetries)
	local.EXPECT().Get(gomock.Any()).Return(nil, errors.New("cache down")).Times(1)

	cache := New(remote, local, time.Minute, nil, nil)

	result := cache.Load(context.Background())
	if result.Source != SourceUnavailable {
		t.Errorf("source = %s, want %s", result.Source, SourceUnavailable)
	}
	if !errors.Is(result.Err, remoteErr) {
		t.Errorf("err = %v, want %v", result.Err, remoteErr)
	}
	if result.Config == nil || !result.Config.Empty() {
		t.Error("expected non-nil empty config on outage")
	}
}

func TestCache_Load_RemoteErrorServedFromLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := domain.NewMockConfigStore(ctrl)
	local := domain.NewMockConfigCache(ctrl)

	cfg := testConfig()
	remote.EXPECT().Get(gomock.Any()).Return(nil, errors.New("connection refused")).Times(maxRemoteRetries)
	local.EXPECT().Get(gomock.Any()).Return(cfg, nil).Times(1)

	cache := New(remote, local, time.Minute, nil, nil)

	result := cache.Load(context.Background())
	if result.Source != SourceLocal {
		t.Errorf("source = %s, want %s", result.Source, SourceLocal)
	}
	if result.Err != nil {
		t.Errorf("local fallback should not surface the remote error, got %v", result.Err)
	}
}

func TestCache_Load_TTLExpiryRefreshes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := domain.NewMockConfigStore(ctrl)
	local := domain.NewMockConfigCache(ctrl)

	cfg := testConfig()
	remote.EXPECT().Get(gomock.Any()).Return(cfg, nil).Times(2)
	local.EXPECT().Set(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	cache := New(remote, local, 20*time.Millisecond, nil, nil)

	ctx := context.Background()
	cache.Load(ctx)

	time.Sleep(50 * time.Millisecond)

	result := cache.Load(ctx)
	if result.Source != SourceRemote {
		t.Errorf("post-expiry source = %s, want %s", result.Source, SourceRemote)
	}
}

func TestCache_Invalidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := domain.NewMockConfigStore(ctrl)
	local := domain.NewMockConfigCache(ctrl)

	remote.EXPECT().Get(gomock.Any()).Return(testConfig(), nil).Times(2)
	local.EXPECT().Set(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	cache := New(remote, local, time.Minute, nil, nil)

	ctx := context.Background()
	cache.Load(ctx)
	cache.Invalidate()

	result := cache.Load(ctx)
	if result.Source != SourceRemote {
		t.Errorf("post-invalidate source = %s, want %s", result.Source, SourceRemote)
	}
}

func TestCache_Save_Validation(t *testing.T) {
	tests := []struct {
		name     string
		semester string
		blocks   domain.SemesterBlocks
	}{
		{
			name:     "unknown semester",
			semester: "winter",
			blocks: domain.SemesterBlocks{
				1: {Start: "2025-01-01", End: "2025-02-01"},
			},
		},
		{
			name:     "wrong block count for summer",
			semester: domain.SemesterSummer,
			blocks: domain.SemesterBlocks{
				1: {Start: "2025-08-11", End: "2025-09-01"},
				2: {Start: "2025-09-02", End: "2025-09-20"},
			},
		},
		{
			name:     "inverted range",
			semester: domain.SemesterSummer,
			blocks: domain.SemesterBlocks{
				1: {Start: "2025-09-01", End: "2025-08-11"},
			},
		},
		{
			name:     "block number zero",
			semester: domain.SemesterSummer,
			blocks: domain.SemesterBlocks{
				0: {Start: "2025-08-11", End: "2025-09-01"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			remote := domain.NewMockConfigStore(ctrl)
			local := domain.NewMockConfigCache(ctrl)

			cache := New(remote, local, time.Minute, nil, nil)

			if _, err := cache.Save(context.Background(), tt.semester, tt.blocks); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestCache_Save_MergesAndRefreshesLayers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := domain.NewMockConfigStore(ctrl)
	local := domain.NewMockConfigCache(ctrl)

	blocks := domain.SemesterBlocks{
		1: {Start: "2025-08-11", End: "2025-09-30"},
	}

	merged := testConfig()
	merged.Merge(domain.SemesterSummer, blocks)

	remote.EXPECT().
		Set(gomock.Any(), gomock.Any(), true).
		DoAndReturn(func(_ context.Context, cfg *domain.CalendarConfig, _ bool) error {
			if len(cfg.Semesters) != 1 {
				t.Errorf("merge update carries %d semesters, want 1", len(cfg.Semesters))
			}
			return nil
		}).Times(1)
	remote.EXPECT().Get(gomock.Any()).Return(merged, nil).Times(1)
	local.EXPECT().Set(gomock.Any(), merged).Return(nil).Times(1)

	cache := New(remote, local, time.Minute, nil, nil)

	got, err := cache.Save(context.Background(), domain.SemesterSummer, blocks)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(got.Semesters) != 2 {
		t.Errorf("merged config has %d semesters, want 2", len(got.Semesters))
	}

	// The saved config is now served from memory.
	result := cache.Load(context.Background())
	if result.Source != SourceMemory {
		t.Errorf("post-save source = %s, want %s", result.Source, SourceMemory)
	}
	if _, ok := result.Config.Semesters[domain.SemesterSummer]; !ok {
		t.Error("saved semester missing from served config")
	}
}

func TestCache_Save_RetriesTransientSetFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := domain.NewMockConfigStore(ctrl)
	local := domain.NewMockConfigCache(ctrl)

	blocks := domain.SemesterBlocks{
		1: {Start: "2025-08-11", End: "2025-09-30"},
	}
	merged := domain.NewCalendarConfig()
	merged.Merge(domain.SemesterSummer, blocks)

	gomock.InOrder(
		remote.EXPECT().Set(gomock.Any(), gomock.Any(), true).Return(errors.New("deadline exceeded")),
		remote.EXPECT().Set(gomock.Any(), gomock.Any(), true).Return(nil),
	)
	remote.EXPECT().Get(gomock.Any()).Return(merged, nil).Times(1)
	local.EXPECT().Set(gomock.Any(), merged).Return(nil).Times(1)

	cache := New(remote, local, time.Minute, nil, nil)

	if _, err := cache.Save(context.Background(), domain.SemesterSummer, blocks); err != nil {
		t.Fatalf("Save after retry: %v", err)
	}
}
