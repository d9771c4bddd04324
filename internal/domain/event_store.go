package domain

import "context"

//go:generate mockgen -source=event_store.go -destination=event_store_mock.go -package=domain

// EventFilter narrows an event query. Zero fields are ignored. Date matches
// one calendar day exactly; DateFrom/DateTo form an inclusive range.
type EventFilter struct {
	Date     string
	DateFrom string
	DateTo   string
}

// EventFieldUpdate is the label field set written back by classification.
// Nil pointer fields are persisted as nulls, which is how a DEFAULT_COURSE
// assignment clears previously stored block/session values.
type EventFieldUpdate struct {
	CourseID string
	Semester *string
	Block    *int
	Session  *Session
}

// EventStore is the record store collaborator. DeleteBatch must be called
// with at most BatchLimit ids; one call is one atomic batch.
type EventStore interface {
	Query(ctx context.Context, filter EventFilter) ([]*AttendanceEvent, error)
	UpdateFields(ctx context.Context, id string, fields EventFieldUpdate) error
	DeleteBatch(ctx context.Context, ids []string) error
	BatchLimit() int
}
