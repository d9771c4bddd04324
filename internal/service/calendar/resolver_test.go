package calendar

import (
	"testing"

	"github.com/campuseye/attendance-engine/internal/domain"
)

func testConfig() *domain.CalendarConfig {
	cfg := domain.NewCalendarConfig()
	cfg.Merge(domain.SemesterFall, domain.SemesterBlocks{
		1: {Start: "2025-09-01", End: "2025-10-15"},
		2: {Start: "2025-10-16", End: "2025-11-30"},
		3: {Start: "2025-12-01", End: "2025-12-20"},
	})
	cfg.Merge(domain.SemesterSummer, domain.SemesterBlocks{
		1: {Start: "2025-06-01", End: "2025-08-15"},
	})
	return cfg
}

func TestResolver_Resolve(t *testing.T) {
	resolver := NewResolver()
	cfg := testConfig()

	tests := []struct {
		name     string
		date     string
		want     Placement
		wantHit  bool
	}{
		{"inside fall block 1", "2025-09-10", Placement{domain.SemesterFall, 1}, true},
		{"block start inclusive", "2025-09-01", Placement{domain.SemesterFall, 1}, true},
		{"block end inclusive", "2025-10-15", Placement{domain.SemesterFall, 1}, true},
		{"next block start", "2025-10-16", Placement{domain.SemesterFall, 2}, true},
		{"summer block", "2025-07-04", Placement{domain.SemesterSummer, 1}, true},
		{"outside every block", "2025-12-25", Placement{}, false},
		{"before the year starts", "2025-01-15", Placement{}, false},
		{"empty date", "", Placement{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := resolver.Resolve(tt.date, cfg)
			if hit != tt.wantHit {
				t.Fatalf("Resolve(%q) hit = %v, want %v", tt.date, hit, tt.wantHit)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %+v, want %+v", tt.date, got, tt.want)
			}
		})
	}
}

func TestResolver_FirstMatchWinsOnOverlap(t *testing.T) {
	resolver := NewResolver()

	cfg := domain.NewCalendarConfig()
	cfg.Merge(domain.SemesterFall, domain.SemesterBlocks{
		1: {Start: "2025-09-01", End: "2025-10-15"},
		2: {Start: "2025-10-01", End: "2025-11-30"}, // overlaps block 1
	})

	got, hit := resolver.Resolve("2025-10-10", cfg)
	if !hit {
		t.Fatal("expected a placement")
	}
	if got.Block != 1 {
		t.Errorf("overlapping date resolved to block %d, want first-match block 1", got.Block)
	}
}

func TestResolver_SemesterOrderIsFixed(t *testing.T) {
	resolver := NewResolver()

	// The same date covered by both spring and fall resolves to spring,
	// which comes first in the scan order.
	cfg := domain.NewCalendarConfig()
	cfg.Merge(domain.SemesterFall, domain.SemesterBlocks{
		1: {Start: "2025-03-01", End: "2025-03-31"},
	})
	cfg.Merge(domain.SemesterSpring, domain.SemesterBlocks{
		1: {Start: "2025-03-01", End: "2025-03-31"},
	})

	got, hit := resolver.Resolve("2025-03-15", cfg)
	if !hit {
		t.Fatal("expected a placement")
	}
	if got.Semester != domain.SemesterSpring {
		t.Errorf("resolved to %q, want %q", got.Semester, domain.SemesterSpring)
	}
}

func TestResolver_NilAndEmptyConfig(t *testing.T) {
	resolver := NewResolver()

	if _, hit := resolver.Resolve("2025-09-10", nil); hit {
		t.Error("nil config should resolve nothing")
	}
	if _, hit := resolver.Resolve("2025-09-10", domain.NewCalendarConfig()); hit {
		t.Error("empty config should resolve nothing")
	}
}
