package pendingchange

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/msu-projects/sitio-portal/modules/review/domain/resource"
)

// ConflictDetail records one field changed by someone else after the
// proposal's baseline was captured.
type ConflictDetail struct {
	Field         string          `json:"field"`
	CurrentValue  json.RawMessage `json:"currentValue"`
	ProposedValue json.RawMessage `json:"proposedValue"`
}

// PendingChange is a contributor's proposed edit to a sitio or project
// record, awaiting review. OriginalData is the baseline snapshot of the
// resource as the submitter saw it; ProposedData the suggested replacement,
// possibly carrying a year-keyed yearlyData sub-map.
//
// All lifecycle mutations go through the methods below, which enforce the
// transition table; callers never flip Status directly.
type PendingChange struct {
	ID                          uuid.UUID       `json:"id"`
	ResourceType                resource.Type   `json:"resourceType"`
	ResourceID                  uuid.UUID       `json:"resourceId"`
	ResourceName                string          `json:"resourceName"`
	SubmittedByUserID           uuid.UUID       `json:"submittedByUserId"`
	SubmittedByUserName         string          `json:"submittedByUserName"`
	SubmittedAt                 time.Time       `json:"submittedAt"`
	Status                      Status          `json:"status"`
	OriginalData                json.RawMessage `json:"originalData"`
	ProposedData                json.RawMessage `json:"proposedData"`
	ReviewedByUserID            uuid.UUID       `json:"reviewedByUserId,omitempty"`
	ReviewedByUserName          string          `json:"reviewedByUserName,omitempty"`
	ReviewedAt                  *time.Time      `json:"reviewedAt,omitempty"`
	ReviewerComment             string          `json:"reviewerComment,omitempty"`
	SubmitterComment            string          `json:"submitterComment,omitempty"`
	ConflictDetails             []ConflictDetail `json:"conflictDetails,omitempty"`
	RevisionHistory             []RevisionEntry `json:"revisionHistory"`
	StatusChangeSeenBySubmitter bool            `json:"statusChangeSeenBySubmitter"`
	CreatedAt                   time.Time       `json:"createdAt"`
	UpdatedAt                   time.Time       `json:"updatedAt"`
}

// New creates a pending change in status pending with its initial
// "submitted" ledger entry.
func New(
	resourceType resource.Type,
	resourceID uuid.UUID,
	resourceName string,
	submitterID uuid.UUID,
	submitterName string,
	proposedData json.RawMessage,
	originalData json.RawMessage,
	comment string,
	now time.Time,
) *PendingChange {
	return &PendingChange{
		ID:                          uuid.New(),
		ResourceType:                resourceType,
		ResourceID:                  resourceID,
		ResourceName:                resourceName,
		SubmittedByUserID:           submitterID,
		SubmittedByUserName:         submitterName,
		SubmittedAt:                 now,
		Status:                      StatusPending,
		OriginalData:                originalData,
		ProposedData:                proposedData,
		SubmitterComment:            comment,
		StatusChangeSeenBySubmitter: true,
		RevisionHistory: []RevisionEntry{{
			Action:    RevisionSubmitted,
			UserID:    submitterID,
			UserName:  submitterName,
			Timestamp: now,
			Comment:   comment,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Decision is a reviewer's verdict.
type Decision string

const (
	DecisionApprove         Decision = "approve"
	DecisionReject          Decision = "reject"
	DecisionRequestRevision Decision = "request_revision"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionApprove, DecisionReject, DecisionRequestRevision:
		return true
	}
	return false
}

func (d Decision) action() Action {
	switch d {
	case DecisionApprove:
		return ActionApprove
	case DecisionReject:
		return ActionReject
	default:
		return ActionRequestRevision
	}
}

func (d Decision) revisionAction() RevisionAction {
	switch d {
	case DecisionApprove:
		return RevisionApproved
	case DecisionReject:
		return RevisionRejected
	default:
		return RevisionRevisionRequested
	}
}

// ApplyReview applies a reviewer decision: status change, reviewer fields,
// ledger entry, and the unseen-status flag for the submitter's notification.
func (p *PendingChange) ApplyReview(decision Decision, reviewerID uuid.UUID, reviewerName, comment string, now time.Time) error {
	next, ok := NextStatus(p.Status, decision.action())
	if !ok {
		return ErrInvalidTransition
	}

	p.Status = next
	p.ReviewedByUserID = reviewerID
	p.ReviewedByUserName = reviewerName
	reviewedAt := now
	p.ReviewedAt = &reviewedAt
	p.ReviewerComment = comment
	p.ConflictDetails = nil
	p.StatusChangeSeenBySubmitter = false
	p.appendRevision(RevisionEntry{
		Action:    decision.revisionAction(),
		UserID:    reviewerID,
		UserName:  reviewerName,
		Timestamp: now,
		Comment:   comment,
	})
	p.UpdatedAt = now
	return nil
}

// Edit overwrites the proposal. From pending it is a silent correction; from
// needs_revision or rejected it resubmits, returning the change to pending
// with a "resubmitted" ledger entry.
func (p *PendingChange) Edit(proposedData json.RawMessage, comment string, now time.Time) error {
	next, ok := NextStatus(p.Status, ActionEdit)
	if !ok {
		return ErrInvalidTransition
	}

	resubmission := p.Status != StatusPending

	p.ProposedData = proposedData
	p.SubmitterComment = comment
	p.Status = next
	if resubmission {
		p.appendRevision(RevisionEntry{
			Action:    RevisionResubmitted,
			UserID:    p.SubmittedByUserID,
			UserName:  p.SubmittedByUserName,
			Timestamp: now,
			Comment:   comment,
		})
	}
	p.UpdatedAt = now
	return nil
}

// SetConflicts records the outcome of a conflict check. A non-empty set
// forces (or keeps) status conflict; an empty set clears a previous conflict
// back to pending. No ledger entry is written: conflict is a detection
// outcome, not a human action.
func (p *PendingChange) SetConflicts(details []ConflictDetail, now time.Time) {
	if len(details) > 0 {
		p.Status = StatusConflict
		p.ConflictDetails = details
		p.UpdatedAt = now
		return
	}
	if p.Status == StatusConflict {
		p.Status = StatusPending
		p.ConflictDetails = nil
		p.UpdatedAt = now
	}
}

// Supersede marks this change as invalidated by an approved sibling
// submission for the same resource. Terminal.
func (p *PendingChange) Supersede(now time.Time) {
	p.Status = StatusSuperseded
	p.ConflictDetails = nil
	p.StatusChangeSeenBySubmitter = false
	p.UpdatedAt = now
}

// MarkStatusChangeSeen acknowledges the last reviewer transition.
func (p *PendingChange) MarkStatusChangeSeen() {
	p.StatusChangeSeenBySubmitter = true
}

// appendRevision keeps the ledger append-only and chronologically
// non-decreasing; a clock reading older than the last entry is clamped.
func (p *PendingChange) appendRevision(entry RevisionEntry) {
	if n := len(p.RevisionHistory); n > 0 {
		if last := p.RevisionHistory[n-1].Timestamp; entry.Timestamp.Before(last) {
			entry.Timestamp = last
		}
	}
	p.RevisionHistory = append(p.RevisionHistory, entry)
}
