package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atelier-market/identity-api/internal/core/domain"
	"github.com/atelier-market/identity-api/internal/core/ports"
)

const defaultAuditLimit = 50

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService implementation backed by the given
// repository.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists a single audit event. Called from the dispatcher workers,
// off the request path.
func (s *auditService) Record(ctx context.Context, in ports.AuditEventInput) error {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	event := &domain.AuditEvent{
		ID:        uuid.NewString(),
		SubjectID: in.SubjectID,
		ActorID:   in.ActorID,
		Action:    in.Action,
		Detail:    in.Detail,
		CreatedAt: ts,
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}

	s.log.Debug().Str("subject_id", in.SubjectID).Str("action", in.Action).Msg("audit event recorded")
	return nil
}

// ListBySubject returns the newest events for a subject, capped at limit.
func (s *auditService) ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 || limit > defaultAuditLimit {
		limit = defaultAuditLimit
	}
	return s.repo.FindBySubject(ctx, subjectID, limit)
}
