package handlers

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wI2L/jsondiff"

	"github.com/msu-projects/sitio-portal/modules/logging/domain/auditlog"
	logging "github.com/msu-projects/sitio-portal/modules/logging/services"
	"github.com/msu-projects/sitio-portal/modules/review/domain/pendingchange"
	"github.com/msu-projects/sitio-portal/pkg/eventbus"
)

// AuditHandler subscribes to review domain events and writes the action
// trail. It runs after the originating transaction has committed; a failed
// trail write is logged and dropped rather than failing the workflow.
type AuditHandler struct {
	audit *logging.AuditService
	log   *logrus.Logger
}

func RegisterAuditHandler(bus eventbus.EventBus, audit *logging.AuditService, log *logrus.Logger) *AuditHandler {
	h := &AuditHandler{audit: audit, log: log}
	bus.Subscribe(h.onCreated)
	bus.Subscribe(h.onUpdated)
	bus.Subscribe(h.onReviewed)
	bus.Subscribe(h.onWithdrawn)
	bus.Subscribe(h.onConflictDetected)
	bus.Subscribe(h.onSuperseded)
	return h
}

func (h *AuditHandler) onCreated(event *pendingchange.CreatedEvent) {
	pc := event.Change
	h.record(auditlog.ActionSubmitted, pc, pc.SubmittedByUserName, pc.SubmittedByUserID, "submission created", h.patch(pc.OriginalData, pc.ProposedData))
}

func (h *AuditHandler) onUpdated(event *pendingchange.UpdatedEvent) {
	pc := event.Change
	action := auditlog.ActionEdited
	description := "proposal corrected while pending"
	if event.Resubmission {
		action = auditlog.ActionResubmitted
		description = "proposal resubmitted after review feedback"
	}
	h.record(action, pc, pc.SubmittedByUserName, pc.SubmittedByUserID, description, h.patch(event.PreviousData, pc.ProposedData))
}

func (h *AuditHandler) onReviewed(event *pendingchange.ReviewedEvent) {
	pc := event.Change
	var action auditlog.Action
	switch event.Decision {
	case pendingchange.DecisionApprove:
		action = auditlog.ActionApproved
	case pendingchange.DecisionReject:
		action = auditlog.ActionRejected
	default:
		action = auditlog.ActionRevisionRequested
	}
	h.record(action, pc, pc.ReviewedByUserName, pc.ReviewedByUserID, pc.ReviewerComment, nil)
}

func (h *AuditHandler) onWithdrawn(event *pendingchange.WithdrawnEvent) {
	pc := event.Change
	h.record(auditlog.ActionWithdrawn, pc, pc.SubmittedByUserName, event.ActorID, event.Reason, nil)
}

func (h *AuditHandler) onConflictDetected(event *pendingchange.ConflictDetectedEvent) {
	pc := event.Change
	details, err := json.Marshal(event.Details)
	if err != nil {
		details = nil
	}
	h.record(auditlog.ActionConflictDetected, pc, "system", pc.SubmittedByUserID, "live record drifted from submission baseline", details)
}

func (h *AuditHandler) onSuperseded(event *pendingchange.SupersededEvent) {
	pc := event.Change
	h.record(auditlog.ActionSuperseded, pc, "system", pc.SubmittedByUserID, "sibling submission "+event.ApprovedID.String()+" was approved", nil)
}

func (h *AuditHandler) record(action auditlog.Action, pc *pendingchange.PendingChange, actorName string, actorID uuid.UUID, description string, changes json.RawMessage) {
	_, err := h.audit.LogAuditAction(context.Background(), logging.LogActionParams{
		ActorID:      actorID,
		ActorName:    actorName,
		Action:       action,
		ResourceKind: string(pc.ResourceType),
		ResourceID:   pc.ResourceID,
		ResourceName: pc.ResourceName,
		Description:  description,
		Changes:      changes,
	})
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"action":      action,
			"resource_id": pc.ResourceID,
		}).Error("audit trail write failed")
	}
}

// patch renders the before/after payloads as an RFC 6902 patch. A diff
// failure degrades to no changes attachment.
func (h *AuditHandler) patch(before, after json.RawMessage) json.RawMessage {
	if len(before) == 0 {
		before = json.RawMessage(`{}`)
	}
	if len(after) == 0 {
		after = json.RawMessage(`{}`)
	}
	patch, err := jsondiff.CompareJSON(before, after)
	if err != nil || patch == nil {
		return nil
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil
	}
	return raw
}
