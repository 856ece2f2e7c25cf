package pendingchange

import (
	"time"

	"github.com/google/uuid"
)

// RevisionAction labels one revision ledger entry.
type RevisionAction string

const (
	RevisionSubmitted         RevisionAction = "submitted"
	RevisionApproved          RevisionAction = "approved"
	RevisionRejected          RevisionAction = "rejected"
	RevisionRevisionRequested RevisionAction = "revision_requested"
	RevisionResubmitted       RevisionAction = "resubmitted"
)

// RevisionEntry is one immutable line in the pending change's audit ledger.
// Entries are appended on each transition and never edited or removed.
type RevisionEntry struct {
	Action    RevisionAction `json:"action"`
	UserID    uuid.UUID      `json:"userId"`
	UserName  string         `json:"userName"`
	Timestamp time.Time      `json:"timestamp"`
	Comment   string         `json:"comment,omitempty"`
}
