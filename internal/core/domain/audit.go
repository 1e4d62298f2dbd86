package domain

import "time"

// Audit actions recorded for security-relevant identity operations.
const (
	AuditRegistered  = "user.registered"
	AuditLogin       = "user.login"
	AuditLoginFailed = "user.login_failed"
	AuditUpdated     = "user.updated"
	AuditRoleChanged = "user.role_changed"
	AuditDeleted     = "user.deleted"
)

// AuditEvent is an append-only record of an identity operation.
type AuditEvent struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
