package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfigNotFound  = errors.New("calendar config not found")
	ErrEventNotFound   = errors.New("attendance event not found")
	ErrUnknownSemester = errors.New("unknown semester")
	ErrInvalidCalendar = errors.New("invalid calendar entry")
	ErrMalformedEvent  = errors.New("event missing student id or timestamp")
)

// PartialFailureError reports a chunked bulk operation that failed partway.
// Applied counts side effects already visible in the store, so the caller can
// decide whether to retry the remainder.
type PartialFailureError struct {
	Op           string
	Applied      int
	ChunksOK     int
	ChunksFailed int
	Err          error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: %d items applied, %d chunks ok, %d chunks failed: %v",
		e.Op, e.Applied, e.ChunksOK, e.ChunksFailed, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
