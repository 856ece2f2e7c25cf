package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/msu-projects/sitio-portal/modules/review/domain/pendingchange"
	"github.com/msu-projects/sitio-portal/modules/review/domain/resource"
	"github.com/msu-projects/sitio-portal/pkg/composables"
	"github.com/msu-projects/sitio-portal/pkg/eventbus"
	"github.com/msu-projects/sitio-portal/pkg/metrics"
	"github.com/msu-projects/sitio-portal/pkg/serrors"
	"github.com/msu-projects/sitio-portal/pkg/structdiff"
)

var validate = validator.New()

// ReviewService owns the submission lifecycle: create, edit, withdraw,
// review, conflict detection, and the unseen-status notification flag. Every
// mutating operation is all-or-nothing inside a transaction; the engine
// performs no internal locking — serializing concurrent writers per record is
// the store's job.
type ReviewService struct {
	repo      pendingchange.Repository
	resources resource.Reader
	publisher eventbus.EventBus
	now       func() time.Time
}

func NewReviewService(
	repo pendingchange.Repository,
	resources resource.Reader,
	publisher eventbus.EventBus,
) *ReviewService {
	return &ReviewService{
		repo:      repo,
		resources: resources,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *ReviewService) WithClock(now func() time.Time) *ReviewService {
	s.now = now
	return s
}

type CreateSubmissionParams struct {
	ResourceType  resource.Type   `validate:"required"`
	ResourceID    uuid.UUID       `validate:"required"`
	ResourceName  string          `validate:"required"`
	SubmitterID   uuid.UUID       `validate:"required"`
	SubmitterName string          `validate:"required"`
	ProposedData  json.RawMessage `validate:"required"`
	OriginalData  json.RawMessage
	Comment       string
}

// CreateSubmission validates and stores a new pending change. The proposal
// must parse as a structured record before anything is written.
func (s *ReviewService) CreateSubmission(ctx context.Context, params CreateSubmissionParams) (*pendingchange.PendingChange, error) {
	if err := validate.Struct(params); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return nil, serrors.NewFieldRequiredError(verrs[0].Field(), "Review.Fields."+verrs[0].Field())
		}
		return nil, err
	}
	if !params.ResourceType.Valid() {
		return nil, pendingchange.ErrMalformedPayload
	}

	if _, err := parseRecord(params.ProposedData); err != nil {
		return nil, err
	}
	original := params.OriginalData
	if len(original) == 0 {
		original = json.RawMessage(`{}`)
	}
	if _, err := parseRecord(original); err != nil {
		return nil, err
	}

	pc := pendingchange.New(
		params.ResourceType,
		params.ResourceID,
		params.ResourceName,
		params.SubmitterID,
		params.SubmitterName,
		params.ProposedData,
		original,
		params.Comment,
		s.now(),
	)

	var created *pendingchange.PendingChange
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, pc)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.SubmissionsCreated.WithLabelValues(string(created.ResourceType)).Inc()
	s.publisher.Publish(&pendingchange.CreatedEvent{Change: created})
	return created, nil
}

type UpdateSubmissionParams struct {
	ProposedData     json.RawMessage `validate:"required"`
	SubmitterComment string
}

// UpdatePendingSubmission overwrites the proposal. From pending it is a
// silent correction; from needs_revision or rejected it resubmits. Only the
// original submitter may edit.
func (s *ReviewService) UpdatePendingSubmission(ctx context.Context, id uuid.UUID, params UpdateSubmissionParams) (*pendingchange.PendingChange, error) {
	if _, err := parseRecord(params.ProposedData); err != nil {
		return nil, err
	}

	var updated *pendingchange.PendingChange
	var resubmission bool
	var previousData json.RawMessage
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		pc, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.requireSubmitter(txCtx, pc); err != nil {
			return err
		}

		resubmission = pc.Status != pendingchange.StatusPending
		previousData = pc.ProposedData
		if err := pc.Edit(params.ProposedData, params.SubmitterComment, s.now()); err != nil {
			return err
		}
		updated, err = s.repo.Update(txCtx, pc)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&pendingchange.UpdatedEvent{
		Change:       updated,
		Resubmission: resubmission,
		PreviousData: previousData,
	})
	return updated, nil
}

// WithdrawSubmission deletes a pending submission. Withdrawal is only legal
// while the record is still pending; anything later is part of the audit
// trail and must stay.
func (s *ReviewService) WithdrawSubmission(ctx context.Context, id uuid.UUID, reason string) error {
	var withdrawn *pendingchange.PendingChange
	var actorID uuid.UUID
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		pc, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.requireSubmitter(txCtx, pc); err != nil {
			return err
		}
		if !pendingchange.CanWithdraw(pc.Status) {
			return pendingchange.ErrInvalidTransition
		}
		withdrawn = pc
		actorID = pc.SubmittedByUserID
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(&pendingchange.WithdrawnEvent{
		Change:  withdrawn,
		Reason:  reason,
		ActorID: actorID,
	})
	return nil
}

// ReviewSubmission applies a reviewer decision. Approval additionally
// supersedes every other open submission for the same resource: their
// baseline is now stale by definition, and the approved payload replaced the
// record they proposed against.
func (s *ReviewService) ReviewSubmission(ctx context.Context, id uuid.UUID, decision pendingchange.Decision, reviewerID uuid.UUID, reviewerName, comment string) (*pendingchange.PendingChange, error) {
	if !decision.Valid() {
		return nil, pendingchange.ErrInvalidTransition
	}

	var reviewed *pendingchange.PendingChange
	var previous pendingchange.Status
	var superseded []*pendingchange.PendingChange
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		pc, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		previous = pc.Status
		if err := pc.ApplyReview(decision, reviewerID, reviewerName, comment, s.now()); err != nil {
			return err
		}
		if reviewed, err = s.repo.Update(txCtx, pc); err != nil {
			return err
		}
		if decision == pendingchange.DecisionApprove {
			if superseded, err = s.supersedeSiblings(txCtx, reviewed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ReviewDecisions.WithLabelValues(string(reviewed.Status)).Inc()
	s.publisher.Publish(&pendingchange.ReviewedEvent{
		Change:         reviewed,
		Decision:       decision,
		PreviousStatus: previous,
	})
	for _, sib := range superseded {
		s.publisher.Publish(&pendingchange.SupersededEvent{Change: sib, ApprovedID: reviewed.ID})
	}
	return reviewed, nil
}

func (s *ReviewService) supersedeSiblings(ctx context.Context, approved *pendingchange.PendingChange) ([]*pendingchange.PendingChange, error) {
	siblings, err := s.repo.List(ctx, &pendingchange.FindParams{
		ResourceType: approved.ResourceType,
		ResourceID:   approved.ResourceID,
	})
	if err != nil {
		return nil, err
	}

	var superseded []*pendingchange.PendingChange
	for _, sib := range siblings {
		if sib.ID == approved.ID || !pendingchange.CanReview(sib.Status) {
			continue
		}
		sib.Supersede(s.now())
		updated, err := s.repo.Update(ctx, sib)
		if err != nil {
			return nil, err
		}
		superseded = append(superseded, updated)
	}
	return superseded, nil
}

// DetectConflicts runs the three-way comparison against the live resource
// and persists the outcome: a non-empty set forces (or keeps) status
// conflict, an empty set clears a previous conflict back to pending. Records
// no longer awaiting review are returned as stored.
func (s *ReviewService) DetectConflicts(ctx context.Context, id uuid.UUID) ([]pendingchange.ConflictDetail, error) {
	var details []pendingchange.ConflictDetail
	var flagged *pendingchange.PendingChange
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		pc, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if !pendingchange.CanReview(pc.Status) {
			details = pc.ConflictDetails
			return nil
		}

		liveRaw, err := s.resources.CurrentState(txCtx, pc.ResourceType, pc.ResourceID)
		if err != nil {
			return err
		}
		live, err := parseRecord(liveRaw)
		if err != nil {
			return err
		}
		baseline, err := parseRecord(pc.OriginalData)
		if err != nil {
			return err
		}
		proposed, err := parseRecord(pc.ProposedData)
		if err != nil {
			return err
		}

		if details, err = computeConflicts(baseline, proposed, live); err != nil {
			return err
		}

		before := pc.Status
		pc.SetConflicts(details, s.now())
		if pc.Status != before || len(details) > 0 {
			if _, err := s.repo.Update(txCtx, pc); err != nil {
				return err
			}
		}
		if len(details) > 0 && before != pendingchange.StatusConflict {
			flagged = pc
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if flagged != nil {
		metrics.ConflictsDetected.Inc()
		s.publisher.Publish(&pendingchange.ConflictDetectedEvent{Change: flagged, Details: details})
	}
	return details, nil
}

// FieldDifferences previews what a submission changes, for review screens.
func (s *ReviewService) FieldDifferences(original, proposed json.RawMessage) ([]structdiff.FieldDiff, error) {
	return structdiff.FieldDifferences(original, proposed)
}

// MarkStatusChangeAsSeen acknowledges a reviewer's status change on one
// record. Only the submitter's view should trigger it.
func (s *ReviewService) MarkStatusChangeAsSeen(ctx context.Context, id uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		pc, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.requireSubmitter(txCtx, pc); err != nil {
			return err
		}
		if pc.StatusChangeSeenBySubmitter {
			return nil
		}
		pc.MarkStatusChangeSeen()
		_, err = s.repo.Update(txCtx, pc)
		return err
	})
}

// MarkAllStatusChangesAsSeen acknowledges every unseen status change for a
// submitter, returning how many records were flipped. Used on page load to
// drive the one-time aggregated notification.
func (s *ReviewService) MarkAllStatusChangesAsSeen(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		changes, err := s.repo.List(txCtx, &pendingchange.FindParams{SubmittedByUserID: userID})
		if err != nil {
			return err
		}
		for _, pc := range changes {
			if pc.StatusChangeSeenBySubmitter {
				continue
			}
			pc.MarkStatusChangeSeen()
			if _, err := s.repo.Update(txCtx, pc); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *ReviewService) GetByID(ctx context.Context, id uuid.UUID) (*pendingchange.PendingChange, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ReviewService) List(ctx context.Context, params *pendingchange.FindParams) ([]*pendingchange.PendingChange, error) {
	if params == nil {
		params = &pendingchange.FindParams{}
	}
	return s.repo.List(ctx, params)
}

func (s *ReviewService) Count(ctx context.Context, params *pendingchange.FindParams) (int64, error) {
	if params == nil {
		params = &pendingchange.FindParams{}
	}
	return s.repo.Count(ctx, params)
}

// requireSubmitter enforces submitter-only operations when the caller's
// identity is on the context. Headless callers (CLI, tests) without an
// identity pass through.
func (s *ReviewService) requireSubmitter(ctx context.Context, pc *pendingchange.PendingChange) error {
	u, err := composables.UseUser(ctx)
	if err != nil {
		return nil
	}
	if u.ID != pc.SubmittedByUserID {
		return pendingchange.ErrNotSubmitter
	}
	return nil
}

// parseRecord parses raw JSON into the diff engine's value model, mapping
// parse failures to the domain's malformed-payload error.
func parseRecord(raw json.RawMessage) (structdiff.Value, error) {
	if len(raw) == 0 {
		return structdiff.Object(nil), nil
	}
	v, err := structdiff.Parse(raw)
	if err != nil {
		return structdiff.Value{}, pendingchange.ErrMalformedPayload
	}
	if v.Kind() != structdiff.KindObject {
		return structdiff.Value{}, pendingchange.ErrMalformedPayload
	}
	return v, nil
}
