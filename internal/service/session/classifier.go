package session

import (
	"time"

	"github.com/campuseye/attendance-engine/internal/domain"
)

// Window bounds and cutoffs are minutes of the local day, both ends
// inclusive. This is the single canonical table; every consumer classifies
// through it.
const (
	morningStart = 7 * 60         // 07:00
	morningEnd   = 11*60 + 45     // 11:45
	noonStart    = 11*60 + 46     // 11:46
	noonEnd      = 13 * 60        // 13:00
	midGapEnd    = 13*60 + 15     // 13:15
	afternoonEnd = 17*60 - 1      // 16:59
	eveningStart = 17*60 + 30     // 17:30
	eveningEnd   = 20*60 + 30     // 20:30

	morningCutoff   = 8*60 + 10  // 08:10
	afternoonCutoff = 13*60 + 40 // 13:40
	eveningCutoff   = 18*60 + 10 // 18:10
)

var cutoffs = map[domain.Session]int{
	domain.SessionMorning:   morningCutoff,
	domain.SessionAfternoon: afternoonCutoff,
	domain.SessionEvening:   eveningCutoff,
}

// Classifier maps wall-clock times to attendance sessions. Pure and total:
// every minute of the day maps to exactly one of Morning, Afternoon, Evening
// or None.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func (c *Classifier) Classify(t time.Time) domain.Session {
	m := minuteOfDay(t)
	switch {
	case m >= morningStart && m <= morningEnd:
		return domain.SessionMorning
	case m > noonEnd && m <= midGapEnd:
		// 13:01-13:15 gap between noon break and afternoon
		return domain.SessionNone
	case m > midGapEnd && m <= afternoonEnd:
		return domain.SessionAfternoon
	case m >= eveningStart && m <= eveningEnd:
		return domain.SessionEvening
	default:
		return domain.SessionNone
	}
}

// Eligible reports whether a check-in at t counts as on time: inside a
// session and at or before that session's cutoff minute.
func (c *Classifier) Eligible(t time.Time) bool {
	s := c.Classify(t)
	if s.IsNone() {
		return false
	}
	return minuteOfDay(t) <= cutoffs[s]
}

// CutoffElapsed reports whether now is past the session's cutoff minute.
// Deduplication only touches a session once this is true, so re-check-ins
// still arriving inside an open session are never deleted.
func (c *Classifier) CutoffElapsed(s domain.Session, now time.Time) bool {
	cutoff, ok := cutoffs[s]
	if !ok {
		return false
	}
	return minuteOfDay(now) > cutoff
}

// CutoffTime returns the wall-clock cutoff of a session on the given
// calendar day.
func (c *Classifier) CutoffTime(s domain.Session, date string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(domain.DateLayout, date, loc)
	if err != nil {
		return time.Time{}, err
	}
	cutoff, ok := cutoffs[s]
	if !ok {
		return day, nil
	}
	return day.Add(time.Duration(cutoff) * time.Minute), nil
}

// InNoonBreak reports whether t falls in the 11:46-13:00 noon-break window.
// Check-ins there are structurally invalid and purged outright.
func (c *Classifier) InNoonBreak(t time.Time) bool {
	m := minuteOfDay(t)
	return m >= noonStart && m <= noonEnd
}
