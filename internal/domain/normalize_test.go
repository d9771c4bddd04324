package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeEvent_CanonicalFields(t *testing.T) {
	ts := time.Date(2025, 4, 10, 8, 5, 0, 0, time.UTC)

	event, err := NormalizeEvent("ev-1", map[string]any{
		"studentId": "s1",
		"timestamp": ts,
		"date":      "2025-04-10",
		"courseId":  "Blk1_M",
		"cameraId":  "cam-1",
	}, time.UTC)
	if err != nil {
		t.Fatalf("NormalizeEvent: %v", err)
	}

	if event.StudentID != "s1" || event.CourseID != "Blk1_M" || event.CameraID != "cam-1" {
		t.Errorf("unexpected event %+v", event)
	}
	if !event.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", event.Timestamp, ts)
	}
	if event.Date != "2025-04-10" {
		t.Errorf("Date = %s, want 2025-04-10", event.Date)
	}
}

func TestNormalizeEvent_LegacyFieldFallbacks(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
	}{
		{
			name: "student code variant",
			doc: map[string]any{
				"Student_Code": "s1",
				"checkin_time": "2025-04-10T08:05:00Z",
			},
		},
		{
			name: "sid with naive local timestamp",
			doc: map[string]any{
				"sid":  "s1",
				"time": "2025-04-10T08:05:00",
			},
		},
		{
			name: "unix seconds timestamp",
			doc: map[string]any{
				"student_code": "s1",
				"timestamp":    float64(1744272300),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := NormalizeEvent("ev-1", tt.doc, time.UTC)
			if err != nil {
				t.Fatalf("NormalizeEvent: %v", err)
			}
			if event.StudentID != "s1" {
				t.Errorf("StudentID = %s, want s1", event.StudentID)
			}
			if event.Timestamp.IsZero() {
				t.Error("timestamp not recovered")
			}
		})
	}
}

func TestNormalizeEvent_DateDerivedFromTimestamp(t *testing.T) {
	event, err := NormalizeEvent("ev-1", map[string]any{
		"studentId": "s1",
		"timestamp": "2025-04-10T08:05:00Z",
	}, time.UTC)
	if err != nil {
		t.Fatalf("NormalizeEvent: %v", err)
	}
	if event.Date != "2025-04-10" {
		t.Errorf("Date = %s, want derived 2025-04-10", event.Date)
	}
}

func TestNormalizeEvent_MissingCourseGetsDefault(t *testing.T) {
	event, err := NormalizeEvent("ev-1", map[string]any{
		"studentId": "s1",
		"timestamp": "2025-04-10T08:05:00Z",
	}, time.UTC)
	if err != nil {
		t.Fatalf("NormalizeEvent: %v", err)
	}
	if event.CourseID != DefaultCourseID {
		t.Errorf("CourseID = %s, want %s", event.CourseID, DefaultCourseID)
	}
}

func TestNormalizeEvent_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
	}{
		{name: "no student id", doc: map[string]any{"timestamp": "2025-04-10T08:05:00Z"}},
		{name: "no timestamp", doc: map[string]any{"studentId": "s1"}},
		{name: "unparseable timestamp", doc: map[string]any{"studentId": "s1", "timestamp": "yesterday"}},
		{name: "empty document", doc: map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NormalizeEvent("ev-1", tt.doc, time.UTC); !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("err = %v, want %v", err, ErrMalformedEvent)
			}
		})
	}
}

func TestNormalizeEvent_Confidence(t *testing.T) {
	event, err := NormalizeEvent("ev-1", map[string]any{
		"studentId":  "s1",
		"timestamp":  "2025-04-10T08:05:00Z",
		"confidence": 0.93,
	}, time.UTC)
	if err != nil {
		t.Fatalf("NormalizeEvent: %v", err)
	}
	if event.Confidence == nil || *event.Confidence != 0.93 {
		t.Errorf("Confidence = %v, want 0.93", event.Confidence)
	}
}
