package domain

import (
	"regexp"
	"time"
)

const (
	// DateLayout is the calendar-day format used on events and block ranges.
	// Lexicographic comparison of two dates in this layout matches
	// chronological order, which the block resolver relies on.
	DateLayout = "2006-01-02"

	// DefaultCourseID is the sentinel label for events that fall outside
	// every configured block or session window.
	DefaultCourseID = "DEFAULT_COURSE"
)

var blockLabelPattern = regexp.MustCompile(`^Blk\d+_[MAE]$`)

// IsBlockLabel reports whether label is a well-formed block course code
// (e.g. "Blk1_M"). Reclassification skips events that already carry one.
func IsBlockLabel(label string) bool {
	return blockLabelPattern.MatchString(label)
}

// AttendanceEvent is one camera check-in. The timestamp is authoritative for
// classification; Date is the local calendar day derived from it at ingestion.
// Only the label fields (CourseID/Semester/Block/Session) are ever rewritten.
type AttendanceEvent struct {
	ID         string
	StudentID  string
	Timestamp  time.Time
	Date       string
	CourseID   string
	Semester   *string
	Block      *int
	Session    *Session
	CameraID   string
	Confidence *float64
}

// Malformed reports whether the event is unusable for grouping or
// classification. Malformed events are excluded, never fatal.
func (e *AttendanceEvent) Malformed() bool {
	return e == nil || e.StudentID == "" || e.Timestamp.IsZero()
}

// DedupKey is the grouping key for duplicate check-ins.
type DedupKey struct {
	Date      string
	CourseID  string
	StudentID string
}

func (e *AttendanceEvent) DedupKey() DedupKey {
	return DedupKey{
		Date:      e.Date,
		CourseID:  e.CourseID,
		StudentID: e.StudentID,
	}
}
