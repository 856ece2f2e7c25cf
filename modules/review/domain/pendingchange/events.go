package pendingchange

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Domain events published on the in-process bus after a transition commits.
// The audit handler and metrics consume them; nothing in the engine itself
// depends on a subscriber being present.

type CreatedEvent struct {
	Change *PendingChange
}

type UpdatedEvent struct {
	Change       *PendingChange
	Resubmission bool
	// PreviousData is the proposal payload before the overwrite.
	PreviousData json.RawMessage
}

type ReviewedEvent struct {
	Change         *PendingChange
	Decision       Decision
	PreviousStatus Status
}

type WithdrawnEvent struct {
	Change *PendingChange
	Reason string
	// ActorID is the submitter who withdrew the record.
	ActorID uuid.UUID
}

type ConflictDetectedEvent struct {
	Change  *PendingChange
	Details []ConflictDetail
}

type SupersededEvent struct {
	Change *PendingChange
	// ApprovedID is the sibling submission whose approval invalidated this one.
	ApprovedID uuid.UUID
}
