package course

import (
	"fmt"
	"time"

	"github.com/campuseye/attendance-engine/internal/domain"
	"github.com/campuseye/attendance-engine/internal/service/calendar"
	"github.com/campuseye/attendance-engine/internal/service/session"
)

// Assignment is the full label field set for one event. Nil pointer fields
// mean "cleared": a DEFAULT_COURSE assignment explicitly wipes any
// previously stored semester/block/session values.
type Assignment struct {
	CourseID string
	Semester *string
	Block    *int
	Session  *domain.Session
}

func (a Assignment) FieldUpdate() domain.EventFieldUpdate {
	return domain.EventFieldUpdate{
		CourseID: a.CourseID,
		Semester: a.Semester,
		Block:    a.Block,
		Session:  a.Session,
	}
}

// Equal reports whether applying the assignment to the event would change
// any stored label field.
func (a Assignment) Equal(e *domain.AttendanceEvent) bool {
	if e.CourseID != a.CourseID {
		return false
	}
	if !eqStr(e.Semester, a.Semester) || !eqInt(e.Block, a.Block) {
		return false
	}
	return eqSession(e.Session, a.Session)
}

// Assigner composes the session classifier and block resolver into the
// final course code.
type Assigner struct {
	classifier *session.Classifier
	resolver   *calendar.Resolver
}

func NewAssigner(classifier *session.Classifier, resolver *calendar.Resolver) *Assigner {
	return &Assigner{
		classifier: classifier,
		resolver:   resolver,
	}
}

// Assign labels one event from its timestamp and calendar day. A date outside
// every block, or a timestamp in a break/gap window, yields DEFAULT_COURSE
// with all derived fields cleared.
func (a *Assigner) Assign(ts time.Time, date string, cfg *domain.CalendarConfig) Assignment {
	placement, ok := a.resolver.Resolve(date, cfg)
	if !ok {
		return Assignment{CourseID: domain.DefaultCourseID}
	}

	s := a.classifier.Classify(ts)
	if s.IsNone() {
		return Assignment{CourseID: domain.DefaultCourseID}
	}

	semester := placement.Semester
	block := placement.Block
	return Assignment{
		CourseID: fmt.Sprintf("Blk%d_%s", block, s),
		Semester: &semester,
		Block:    &block,
		Session:  &s,
	}
}

func eqStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqSession(a, b *domain.Session) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
