package configstore

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuseye/attendance-engine/internal/domain"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	store, err := NewGormStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func springOnly() *domain.CalendarConfig {
	cfg := domain.NewCalendarConfig()
	cfg.Merge(domain.SemesterSpring, domain.SemesterBlocks{
		1: {Start: "2025-04-01", End: "2025-05-15"},
		2: {Start: "2025-05-16", End: "2025-06-30"},
		3: {Start: "2025-07-01", End: "2025-08-10"},
	})
	return cfg
}

func TestGormStore_GetEmpty(t *testing.T) {
	store := newTestGormStore(t)

	if _, err := store.Get(context.Background()); !errors.Is(err, domain.ErrConfigNotFound) {
		t.Errorf("err = %v, want %v", err, domain.ErrConfigNotFound)
	}
}

func TestGormStore_SetGetRoundTrip(t *testing.T) {
	store := newTestGormStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, springOnly(), false); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	blocks, ok := got.Semesters[domain.SemesterSpring]
	if !ok {
		t.Fatal("spring missing after round trip")
	}
	if len(blocks) != 3 {
		t.Errorf("got %d spring blocks, want 3", len(blocks))
	}
	if blocks[2].Start != "2025-05-16" || blocks[2].End != "2025-06-30" {
		t.Errorf("block 2 = %+v, want 2025-05-16..2025-06-30", blocks[2])
	}
}

func TestGormStore_MergePreservesOtherSemesters(t *testing.T) {
	store := newTestGormStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, springOnly(), false); err != nil {
		t.Fatalf("Set: %v", err)
	}

	update := domain.NewCalendarConfig()
	update.Merge(domain.SemesterSummer, domain.SemesterBlocks{
		1: {Start: "2025-08-11", End: "2025-09-30"},
	})
	if err := store.Set(ctx, update, true); err != nil {
		t.Fatalf("Set merge: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Semesters) != 2 {
		t.Fatalf("got %d semesters, want 2", len(got.Semesters))
	}
	if _, ok := got.Semesters[domain.SemesterSpring]; !ok {
		t.Error("merge dropped spring")
	}
	if _, ok := got.Semesters[domain.SemesterSummer]; !ok {
		t.Error("merged summer missing")
	}
}

func TestGormStore_MergeReplacesSameSemester(t *testing.T) {
	store := newTestGormStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, springOnly(), false); err != nil {
		t.Fatalf("Set: %v", err)
	}

	update := domain.NewCalendarConfig()
	update.Merge(domain.SemesterSpring, domain.SemesterBlocks{
		1: {Start: "2025-04-05", End: "2025-05-20"},
		2: {Start: "2025-05-21", End: "2025-06-30"},
		3: {Start: "2025-07-01", End: "2025-08-10"},
	})
	if err := store.Set(ctx, update, true); err != nil {
		t.Fatalf("Set merge: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Semesters[domain.SemesterSpring][1].Start != "2025-04-05" {
		t.Error("merge did not replace same-semester entry")
	}
}

func TestGormStore_ReplaceWithoutMerge(t *testing.T) {
	store := newTestGormStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, springOnly(), false); err != nil {
		t.Fatalf("Set: %v", err)
	}

	replacement := domain.NewCalendarConfig()
	replacement.Merge(domain.SemesterSummer, domain.SemesterBlocks{
		1: {Start: "2025-08-11", End: "2025-09-30"},
	})
	if err := store.Set(ctx, replacement, false); err != nil {
		t.Fatalf("Set replace: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Semesters) != 1 {
		t.Errorf("got %d semesters, want 1", len(got.Semesters))
	}
	if _, ok := got.Semesters[domain.SemesterSpring]; ok {
		t.Error("non-merge set kept old semester")
	}
}
