package auditlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of event recorded on the trail.
type Action string

const (
	ActionSubmitted         Action = "submitted"
	ActionResubmitted       Action = "resubmitted"
	ActionEdited            Action = "edited"
	ActionApproved          Action = "approved"
	ActionRejected          Action = "rejected"
	ActionRevisionRequested Action = "revision_requested"
	ActionWithdrawn         Action = "withdrawn"
	ActionConflictDetected  Action = "conflict_detected"
	ActionSuperseded        Action = "superseded"
)

// AuditLog is one immutable trail entry. Changes, when present, is an
// RFC 6902 patch describing what the action altered.
type AuditLog struct {
	ID           uuid.UUID       `json:"id"`
	ActorID      uuid.UUID       `json:"actorId"`
	ActorName    string          `json:"actorName"`
	Action       Action          `json:"action"`
	ResourceKind string          `json:"resourceKind"`
	ResourceID   uuid.UUID       `json:"resourceId"`
	ResourceName string          `json:"resourceName"`
	Description  string          `json:"description,omitempty"`
	Changes      json.RawMessage `json:"changes,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// FindParams filters trail listings. Zero values mean "any".
type FindParams struct {
	ActorID      uuid.UUID
	Action       Action
	ResourceKind string
	ResourceID   uuid.UUID
	Limit        int
	Offset       int
}

type Repository interface {
	Create(ctx context.Context, entry *AuditLog) (*AuditLog, error)
	List(ctx context.Context, params *FindParams) ([]*AuditLog, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
}
