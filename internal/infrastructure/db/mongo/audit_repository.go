package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/atelier-market/identity-api/internal/core/domain"
)

const auditCollection = "audit_events"

// AuditRepository implements ports.AuditRepository on an append-only
// MongoDB collection.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type auditDoc struct {
	ID        string    `bson:"_id"`
	SubjectID string    `bson:"subject_id"`
	ActorID   string    `bson:"actor_id,omitempty"`
	Action    string    `bson:"action"`
	Detail    string    `bson:"detail,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := auditDoc{
		ID:        event.ID,
		SubjectID: event.SubjectID,
		ActorID:   event.ActorID,
		Action:    event.Action,
		Detail:    event.Detail,
		CreatedAt: event.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *AuditRepository) FindBySubject(ctx context.Context, subjectID string, limit int) ([]domain.AuditEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{"subject_id": subjectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []auditDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	events := make([]domain.AuditEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, domain.AuditEvent{
			ID:        d.ID,
			SubjectID: d.SubjectID,
			ActorID:   d.ActorID,
			Action:    d.Action,
			Detail:    d.Detail,
			CreatedAt: d.CreatedAt.UTC(),
		})
	}
	return events, nil
}

// EnsureIndexes creates the subject/time index used by FindBySubject.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}
