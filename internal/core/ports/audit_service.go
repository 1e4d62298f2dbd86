package ports

import (
	"context"
	"time"

	"github.com/atelier-market/identity-api/internal/core/domain"
)

// AuditEventInput is the DTO handed from the transport layer to the audit
// worker pool.
type AuditEventInput struct {
	SubjectID string
	ActorID   string
	Action    string
	Detail    string
	Timestamp time.Time
}

// AuditService persists and queries the audit trail.
type AuditService interface {
	Record(ctx context.Context, in AuditEventInput) error
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.AuditEvent, error)
}
