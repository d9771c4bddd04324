package auditrecorder

import (
	"context"

	"github.com/campuseye/attendance-engine/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.AuditRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordReclassification(_ context.Context, _ *domain.ReclassificationRecord) error {
	return nil
}

func (n *noopRecorder) Flush(_ context.Context) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
