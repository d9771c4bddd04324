package domain

import (
	"fmt"
	"time"
)

// Legacy documents carry the same fact under several field names depending on
// which ingestion path wrote them. All of that compatibility lives here; the
// rest of the engine only ever sees the canonical AttendanceEvent schema.
var (
	studentIDKeys  = []string{"studentId", "Student_Code", "student_code", "sid"}
	timestampKeys  = []string{"timestamp", "Timestamp", "checkin_time", "time"}
	dateKeys       = []string{"date", "Date", "checkin_date"}
	courseIDKeys   = []string{"courseId", "Course_Code", "course_code", "course"}
	cameraIDKeys   = []string{"cameraId", "camera_id", "camera"}
	confidenceKeys = []string{"confidence", "Confidence", "score"}
)

// NormalizeEvent converts a raw document into the canonical event schema.
// It returns ErrMalformedEvent when the student id or timestamp cannot be
// recovered; callers exclude such documents instead of failing the batch.
func NormalizeEvent(id string, doc map[string]any, loc *time.Location) (*AttendanceEvent, error) {
	if loc == nil {
		loc = time.Local
	}

	studentID := firstString(doc, studentIDKeys)
	ts := firstTime(doc, timestampKeys, loc)
	if studentID == "" || ts.IsZero() {
		return nil, fmt.Errorf("normalize event %s: %w", id, ErrMalformedEvent)
	}

	date := firstString(doc, dateKeys)
	if date == "" {
		date = ts.In(loc).Format(DateLayout)
	}

	event := &AttendanceEvent{
		ID:        id,
		StudentID: studentID,
		Timestamp: ts,
		Date:      date,
		CourseID:  firstString(doc, courseIDKeys),
		CameraID:  firstString(doc, cameraIDKeys),
	}
	if event.CourseID == "" {
		event.CourseID = DefaultCourseID
	}
	if conf, ok := firstFloat(doc, confidenceKeys); ok {
		event.Confidence = &conf
	}

	return event, nil
}

func firstString(doc map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := doc[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstFloat(doc map[string]any, keys []string) (float64, bool) {
	for _, key := range keys {
		switch v := doc[key].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		}
	}
	return 0, false
}

func firstTime(doc map[string]any, keys []string, loc *time.Location) time.Time {
	for _, key := range keys {
		switch v := doc[key].(type) {
		case time.Time:
			if !v.IsZero() {
				return v
			}
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t
			}
			if t, err := time.ParseInLocation("2006-01-02T15:04:05", v, loc); err == nil {
				return t
			}
		case float64:
			// Unix seconds, the oldest ingestion path.
			if v > 0 {
				return time.Unix(int64(v), 0).In(loc)
			}
		case int64:
			if v > 0 {
				return time.Unix(v, 0).In(loc)
			}
		}
	}
	return time.Time{}
}
