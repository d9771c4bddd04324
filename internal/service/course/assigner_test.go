package course

import (
	"testing"
	"time"

	"github.com/campuseye/attendance-engine/internal/domain"
	"github.com/campuseye/attendance-engine/internal/service/calendar"
	"github.com/campuseye/attendance-engine/internal/service/session"
)

func testAssigner() *Assigner {
	return NewAssigner(session.NewClassifier(), calendar.NewResolver())
}

func fallConfig() *domain.CalendarConfig {
	cfg := domain.NewCalendarConfig()
	cfg.Merge(domain.SemesterFall, domain.SemesterBlocks{
		1: {Start: "2025-09-01", End: "2025-10-15"},
	})
	return cfg
}

func ts(hour, minute int) time.Time {
	return time.Date(2025, 9, 10, hour, minute, 0, 0, time.UTC)
}

func TestAssigner_Assign(t *testing.T) {
	assigner := testAssigner()
	cfg := fallConfig()

	tests := []struct {
		name         string
		ts           time.Time
		date         string
		wantCourse   string
		wantSession  domain.Session
		wantBlock    int
		wantResolved bool
	}{
		{
			name:         "morning check-in inside block",
			ts:           ts(8, 5),
			date:         "2025-09-10",
			wantCourse:   "Blk1_M",
			wantSession:  domain.SessionMorning,
			wantBlock:    1,
			wantResolved: true,
		},
		{
			name:         "late morning still labeled morning",
			ts:           ts(8, 15),
			date:         "2025-09-10",
			wantCourse:   "Blk1_M",
			wantSession:  domain.SessionMorning,
			wantBlock:    1,
			wantResolved: true,
		},
		{
			name:         "evening check-in",
			ts:           ts(18, 0),
			date:         "2025-09-10",
			wantCourse:   "Blk1_E",
			wantSession:  domain.SessionEvening,
			wantBlock:    1,
			wantResolved: true,
		},
		{
			name:       "noon break clears fields",
			ts:         ts(12, 30),
			date:       "2025-09-10",
			wantCourse: domain.DefaultCourseID,
		},
		{
			name:       "date outside every block",
			ts:         ts(8, 5),
			date:       "2025-12-25",
			wantCourse: domain.DefaultCourseID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assigner.Assign(tt.ts, tt.date, cfg)

			if got.CourseID != tt.wantCourse {
				t.Errorf("CourseID = %q, want %q", got.CourseID, tt.wantCourse)
			}
			if !tt.wantResolved {
				if got.Semester != nil || got.Block != nil || got.Session != nil {
					t.Errorf("default assignment should clear all fields, got %+v", got)
				}
				return
			}
			if got.Semester == nil || *got.Semester != domain.SemesterFall {
				t.Errorf("Semester = %v, want %q", got.Semester, domain.SemesterFall)
			}
			if got.Block == nil || *got.Block != tt.wantBlock {
				t.Errorf("Block = %v, want %d", got.Block, tt.wantBlock)
			}
			if got.Session == nil || *got.Session != tt.wantSession {
				t.Errorf("Session = %v, want %q", got.Session, tt.wantSession)
			}
		})
	}
}

func TestAssigner_AssignEmptyConfig(t *testing.T) {
	assigner := testAssigner()

	got := assigner.Assign(ts(8, 5), "2025-09-10", domain.NewCalendarConfig())
	if got.CourseID != domain.DefaultCourseID {
		t.Errorf("CourseID = %q, want %q", got.CourseID, domain.DefaultCourseID)
	}
}

func TestAssignment_Equal(t *testing.T) {
	semester := domain.SemesterFall
	block := 1
	s := domain.SessionMorning

	assignment := Assignment{
		CourseID: "Blk1_M",
		Semester: &semester,
		Block:    &block,
		Session:  &s,
	}

	matching := &domain.AttendanceEvent{
		CourseID: "Blk1_M",
		Semester: &semester,
		Block:    &block,
		Session:  &s,
	}
	if !assignment.Equal(matching) {
		t.Error("expected assignment to equal matching event")
	}

	unlabeled := &domain.AttendanceEvent{CourseID: "Blk1_M"}
	if assignment.Equal(unlabeled) {
		t.Error("event without derived fields should not equal a resolved assignment")
	}

	cleared := Assignment{CourseID: domain.DefaultCourseID}
	stillLabeled := &domain.AttendanceEvent{CourseID: domain.DefaultCourseID, Block: &block}
	if cleared.Equal(stillLabeled) {
		t.Error("cleared assignment should differ from event with stale block")
	}
}

func TestIsBlockLabel(t *testing.T) {
	tests := []struct {
		label string
		want  bool
	}{
		{"Blk1_M", true},
		{"Blk3_E", true},
		{"Blk12_A", true},
		{"DEFAULT_COURSE", false},
		{"Blk1_X", false},
		{"blk1_M", false},
		{"Blk_M", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := domain.IsBlockLabel(tt.label); got != tt.want {
			t.Errorf("IsBlockLabel(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}
