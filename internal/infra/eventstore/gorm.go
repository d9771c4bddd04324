// Package eventstore persists attendance events in Postgres through gorm.
package eventstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/campuseye/attendance-engine/internal/domain"
)

const defaultBatchLimit = 500

// eventRecord is the gorm row model. Label fields are nullable so a
// DEFAULT_COURSE assignment can clear them.
type eventRecord struct {
	ID         string    `gorm:"primaryKey;column:id"`
	StudentID  string    `gorm:"column:student_id;index:idx_events_dedup,priority:3"`
	Timestamp  time.Time `gorm:"column:timestamp"`
	Date       string    `gorm:"column:date;index:idx_events_dedup,priority:1;index:idx_events_date"`
	CourseID   string    `gorm:"column:course_id;index:idx_events_dedup,priority:2"`
	Semester   *string   `gorm:"column:semester"`
	Block      *int      `gorm:"column:block"`
	Session    *string   `gorm:"column:session"`
	CameraID   string    `gorm:"column:camera_id"`
	Confidence *float64  `gorm:"column:confidence"`
}

func (eventRecord) TableName() string {
	return "attendance_events"
}

type Store struct {
	db         *gorm.DB
	batchLimit int
}

func New(db *gorm.DB, batchLimit int) (*Store, error) {
	if batchLimit <= 0 {
		batchLimit = defaultBatchLimit
	}
	if err := db.AutoMigrate(&eventRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate attendance_events: %w", err)
	}
	return &Store{db: db, batchLimit: batchLimit}, nil
}

func (s *Store) BatchLimit() int {
	return s.batchLimit
}

func (s *Store) Query(ctx context.Context, filter domain.EventFilter) ([]*domain.AttendanceEvent, error) {
	q := s.db.WithContext(ctx).Model(&eventRecord{})

	if filter.Date != "" {
		q = q.Where("date = ?", filter.Date)
	}
	if filter.DateFrom != "" {
		q = q.Where("date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q = q.Where("date <= ?", filter.DateTo)
	}

	var records []eventRecord
	if err := q.Order("timestamp, id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	events := make([]*domain.AttendanceEvent, 0, len(records))
	for i := range records {
		events = append(events, toDomain(&records[i]))
	}
	return events, nil
}

// UpdateFields writes the full label field set, including explicit nulls for
// cleared fields, and never touches anything else on the row.
func (s *Store) UpdateFields(ctx context.Context, id string, fields domain.EventFieldUpdate) error {
	var sess *string
	if fields.Session != nil {
		v := fields.Session.String()
		sess = &v
	}

	result := s.db.WithContext(ctx).
		Model(&eventRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"course_id": fields.CourseID,
			"semester":  fields.Semester,
			"block":     fields.Block,
			"session":   sess,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update event %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrEventNotFound, id)
	}
	return nil
}

// DeleteBatch removes the given rows in one transaction. Callers keep the
// slice at or under BatchLimit.
func (s *Store) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > s.batchLimit {
		return fmt.Errorf("delete batch of %d exceeds limit %d", len(ids), s.batchLimit)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", ids).Delete(&eventRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete batch: %w", err)
		}
		return nil
	})
}

// Insert stores one event, used by ingestion and tests.
func (s *Store) Insert(ctx context.Context, e *domain.AttendanceEvent) error {
	if e.Malformed() {
		return domain.ErrMalformedEvent
	}
	if err := s.db.WithContext(ctx).Create(toRecord(e)).Error; err != nil {
		return fmt.Errorf("failed to insert event %s: %w", e.ID, err)
	}
	return nil
}

// Get fetches one event by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.AttendanceEvent, error) {
	var record eventRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrEventNotFound, id)
		}
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	return toDomain(&record), nil
}

func toDomain(r *eventRecord) *domain.AttendanceEvent {
	var sess *domain.Session
	if r.Session != nil {
		v := domain.Session(*r.Session)
		sess = &v
	}
	return &domain.AttendanceEvent{
		ID:         r.ID,
		StudentID:  r.StudentID,
		Timestamp:  r.Timestamp,
		Date:       r.Date,
		CourseID:   r.CourseID,
		Semester:   r.Semester,
		Block:      r.Block,
		Session:    sess,
		CameraID:   r.CameraID,
		Confidence: r.Confidence,
	}
}

func toRecord(e *domain.AttendanceEvent) *eventRecord {
	var sess *string
	if e.Session != nil {
		v := e.Session.String()
		sess = &v
	}
	return &eventRecord{
		ID:         e.ID,
		StudentID:  e.StudentID,
		Timestamp:  e.Timestamp,
		Date:       e.Date,
		CourseID:   e.CourseID,
		Semester:   e.Semester,
		Block:      e.Block,
		Session:    sess,
		CameraID:   e.CameraID,
		Confidence: e.Confidence,
	}
}
