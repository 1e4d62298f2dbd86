package ports

import (
	"context"

	"github.com/atelier-market/identity-api/internal/core/domain"
)

// AuditRepository handles append-only audit event persistence.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	// FindBySubject returns the most recent events for the subject,
	// newest first, capped at limit.
	FindBySubject(ctx context.Context, subjectID string, limit int) ([]domain.AuditEvent, error)
}
