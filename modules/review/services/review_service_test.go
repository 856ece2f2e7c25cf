package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msu-projects/sitio-portal/modules/review/domain/pendingchange"
	"github.com/msu-projects/sitio-portal/modules/review/domain/resource"
	"github.com/msu-projects/sitio-portal/modules/review/infrastructure/persistence"
	"github.com/msu-projects/sitio-portal/modules/review/services"
	"github.com/msu-projects/sitio-portal/pkg/eventbus"
)

type stubResourceReader struct {
	states map[uuid.UUID]json.RawMessage
}

func (s *stubResourceReader) CurrentState(_ context.Context, _ resource.Type, id uuid.UUID) (json.RawMessage, error) {
	if state, ok := s.states[id]; ok {
		return state, nil
	}
	return json.RawMessage(`{}`), nil
}

func newTestService(t *testing.T) (*services.ReviewService, *persistence.MemoryPendingChangeRepository, *stubResourceReader) {
	t.Helper()
	repo := persistence.NewMemoryPendingChangeRepository()
	reader := &stubResourceReader{states: map[uuid.UUID]json.RawMessage{}}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := services.NewReviewService(repo, reader, eventbus.NewEventPublisher(log))
	return svc, repo, reader
}

func submit(t *testing.T, svc *services.ReviewService, resourceID uuid.UUID, original, proposed string) *pendingchange.PendingChange {
	t.Helper()
	pc, err := svc.CreateSubmission(context.Background(), services.CreateSubmissionParams{
		ResourceType:  resource.TypeSitio,
		ResourceID:    resourceID,
		ResourceName:  "Sitio Malagos",
		SubmitterID:   uuid.New(),
		SubmitterName: "Ana Reyes",
		ProposedData:  json.RawMessage(proposed),
		OriginalData:  json.RawMessage(original),
	})
	require.NoError(t, err)
	return pc
}

func TestCreateSubmission(t *testing.T) {
	svc, _, _ := newTestService(t)

	t.Run("starts pending with a submitted ledger entry", func(t *testing.T) {
		pc := submit(t, svc, uuid.New(), `{"population": 100}`, `{"population": 120}`)

		assert.Equal(t, pendingchange.StatusPending, pc.Status)
		assert.True(t, pc.StatusChangeSeenBySubmitter)
		require.Len(t, pc.RevisionHistory, 1)
		assert.Equal(t, pendingchange.RevisionSubmitted, pc.RevisionHistory[0].Action)
	})

	t.Run("rejects malformed proposal before writing", func(t *testing.T) {
		_, err := svc.CreateSubmission(context.Background(), services.CreateSubmissionParams{
			ResourceType:  resource.TypeSitio,
			ResourceID:    uuid.New(),
			ResourceName:  "Sitio Malagos",
			SubmitterID:   uuid.New(),
			SubmitterName: "Ana Reyes",
			ProposedData:  json.RawMessage(`{"population":`),
		})
		require.ErrorIs(t, err, pendingchange.ErrMalformedPayload)
	})

	t.Run("rejects a non-object proposal", func(t *testing.T) {
		_, err := svc.CreateSubmission(context.Background(), services.CreateSubmissionParams{
			ResourceType:  resource.TypeSitio,
			ResourceID:    uuid.New(),
			ResourceName:  "Sitio Malagos",
			SubmitterID:   uuid.New(),
			SubmitterName: "Ana Reyes",
			ProposedData:  json.RawMessage(`[1, 2, 3]`),
		})
		require.ErrorIs(t, err, pendingchange.ErrMalformedPayload)
	})

	t.Run("missing original defaults to an empty record", func(t *testing.T) {
		pc := submit(t, svc, uuid.New(), ``, `{"population": 120}`)
		assert.JSONEq(t, `{}`, string(pc.OriginalData))
	})
}

func TestReviewSubmission(t *testing.T) {
	reviewerID := uuid.New()

	t.Run("approve finalizes reviewer fields and ledger", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		pc := submit(t, svc, uuid.New(), `{"population": 100}`, `{"population": 120}`)

		reviewed, err := svc.ReviewSubmission(context.Background(), pc.ID, pendingchange.DecisionApprove, reviewerID, "Ben Cruz", "checked against field report")
		require.NoError(t, err)

		assert.Equal(t, pendingchange.StatusApproved, reviewed.Status)
		assert.Equal(t, reviewerID, reviewed.ReviewedByUserID)
		require.NotNil(t, reviewed.ReviewedAt)
		assert.False(t, reviewed.StatusChangeSeenBySubmitter)
		require.Len(t, reviewed.RevisionHistory, 2)
		assert.Equal(t, pendingchange.RevisionApproved, reviewed.RevisionHistory[1].Action)
	})

	t.Run("terminal statuses refuse further decisions unchanged", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		pc := submit(t, svc, uuid.New(), `{}`, `{"population": 120}`)

		_, err := svc.ReviewSubmission(context.Background(), pc.ID, pendingchange.DecisionApprove, reviewerID, "Ben Cruz", "")
		require.NoError(t, err)

		_, err = svc.ReviewSubmission(context.Background(), pc.ID, pendingchange.DecisionReject, reviewerID, "Ben Cruz", "")
		require.ErrorIs(t, err, pendingchange.ErrInvalidTransition)

		stored, err := repo.GetByID(context.Background(), pc.ID)
		require.NoError(t, err)
		assert.Equal(t, pendingchange.StatusApproved, stored.Status)
		assert.Len(t, stored.RevisionHistory, 2)
	})

	t.Run("invalid decision is rejected", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		pc := submit(t, svc, uuid.New(), `{}`, `{"population": 120}`)

		_, err := svc.ReviewSubmission(context.Background(), pc.ID, pendingchange.Decision("escalate"), reviewerID, "Ben Cruz", "")
		require.ErrorIs(t, err, pendingchange.ErrInvalidTransition)
	})

	t.Run("approval supersedes open siblings for the same resource", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		resourceID := uuid.New()
		first := submit(t, svc, resourceID, `{"population": 100}`, `{"population": 120}`)
		second := submit(t, svc, resourceID, `{"population": 100}`, `{"population": 130}`)
		other := submit(t, svc, uuid.New(), `{"population": 50}`, `{"population": 60}`)

		_, err := svc.ReviewSubmission(context.Background(), first.ID, pendingchange.DecisionApprove, reviewerID, "Ben Cruz", "")
		require.NoError(t, err)

		stored, err := repo.GetByID(context.Background(), second.ID)
		require.NoError(t, err)
		assert.Equal(t, pendingchange.StatusSuperseded, stored.Status)

		untouched, err := repo.GetByID(context.Background(), other.ID)
		require.NoError(t, err)
		assert.Equal(t, pendingchange.StatusPending, untouched.Status)
	})

	t.Run("rejection leaves siblings alone", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		resourceID := uuid.New()
		first := submit(t, svc, resourceID, `{}`, `{"population": 120}`)
		second := submit(t, svc, resourceID, `{}`, `{"population": 130}`)

		_, err := svc.ReviewSubmission(context.Background(), first.ID, pendingchange.DecisionReject, reviewerID, "Ben Cruz", "numbers unverifiable")
		require.NoError(t, err)

		stored, err := repo.GetByID(context.Background(), second.ID)
		require.NoError(t, err)
		assert.Equal(t, pendingchange.StatusPending, stored.Status)
	})
}

func TestUpdatePendingSubmission(t *testing.T) {
	reviewerID := uuid.New()

	t.Run("silent correction while pending", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		pc := submit(t, svc, uuid.New(), `{}`, `{"population": 120}`)

		updated, err := svc.UpdatePendingSubmission(context.Background(), pc.ID, services.UpdateSubmissionParams{
			ProposedData: json.RawMessage(`{"population": 125}`),
		})
		require.NoError(t, err)

		assert.Equal(t, pendingchange.StatusPending, updated.Status)
		assert.JSONEq(t, `{"population": 125}`, string(updated.ProposedData))
		assert.Len(t, updated.RevisionHistory, 1)
	})

	t.Run("resubmission after revision request returns to pending", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		pc := submit(t, svc, uuid.New(), `{}`, `{"population": 120}`)

		_, err := svc.ReviewSubmission(context.Background(), pc.ID, pendingchange.DecisionRequestRevision, reviewerID, "Ben Cruz", "cite the census batch")
		require.NoError(t, err)

		updated, err := svc.UpdatePendingSubmission(context.Background(), pc.ID, services.UpdateSubmissionParams{
			ProposedData:     json.RawMessage(`{"population": 118}`),
			SubmitterComment: "batch 2023-11 attached",
		})
		require.NoError(t, err)

		assert.Equal(t, pendingchange.StatusPending, updated.Status)
		require.Len(t, updated.RevisionHistory, 3)
		assert.Equal(t, pendingchange.RevisionResubmitted, updated.RevisionHistory[2].Action)
	})

	t.Run("editing an approved submission fails unchanged", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		pc := submit(t, svc, uuid.New(), `{}`, `{"population": 120}`)

		_, err := svc.ReviewSubmission(context.Background(), pc.ID, pendingchange.DecisionApprove, reviewerID, "Ben Cruz", "")
		require.NoError(t, err)

		_, err = svc.UpdatePendingSubmission(context.Background(), pc.ID, services.UpdateSubmissionParams{
			ProposedData: json.RawMessage(`{"population": 999}`),
		})
		require.ErrorIs(t, err, pendingchange.ErrInvalidTransition)

		stored, err := repo.GetByID(context.Background(), pc.ID)
		require.NoError(t, err)
		assert.JSONEq(t, `{"population": 120}`, string(stored.ProposedData))
	})

	t.Run("malformed replacement never reaches the store", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		pc := submit(t, svc, uuid.New(), `{}`, `{"population": 120}`)

		_, err := svc.UpdatePendingSubmission(context.Background(), pc.ID, services.UpdateSubmissionParams{
			ProposedData: json.RawMessage(`not json`),
		})
		require.ErrorIs(t, err, pendingchange.ErrMalformedPayload)

		stored, err := repo.GetByID(context.Background(), pc.ID)
		require.NoError(t, err)
		assert.JSONEq(t, `{"population": 120}`, string(stored.ProposedData))
	})
}

func TestWithdrawSubmission(t *testing.T) {
	reviewerID := uuid.New()

	t.Run("pending submission is removed", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		pc := submit(t, svc, uuid.New(), `{}`, `{"population": 120}`)

		require.NoError(t, svc.WithdrawSubmission(context.Background(), pc.ID, "duplicate entry"))

		_, err := repo.GetByID(context.Background(), pc.ID)
		require.ErrorIs(t, err, pendingchange.ErrNotFound)
	})

	t.Run("reviewed submission cannot be withdrawn", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		pc := submit(t, svc, uuid.New(), `{}`, `{"population": 120}`)

		_, err := svc.ReviewSubmission(context.Background(), pc.ID, pendingchange.DecisionApprove, reviewerID, "Ben Cruz", "")
		require.NoError(t, err)

		err = svc.WithdrawSubmission(context.Background(), pc.ID, "")
		require.ErrorIs(t, err, pendingchange.ErrInvalidTransition)

		_, err = repo.GetByID(context.Background(), pc.ID)
		require.NoError(t, err)
	})
}

func TestDetectConflicts(t *testing.T) {
	reviewerID := uuid.New()

	t.Run("flags fields changed by someone else since the baseline", func(t *testing.T) {
		svc, repo, reader := newTestService(t)
		resourceID := uuid.New()
		pc := submit(t, svc, resourceID,
			`{"population": 100, "waterLevel": 2}`,
			`{"population": 120, "waterLevel": 2}`,
		)
		// A third party bumped waterLevel after the baseline was captured.
		reader.states[resourceID] = json.RawMessage(`{"population": 100, "waterLevel": 3}`)

		details, err := svc.DetectConflicts(context.Background(), pc.ID)
		require.NoError(t, err)
		require.Len(t, details, 1)
		assert.Equal(t, "waterLevel", details[0].Field)
		assert.JSONEq(t, `3`, string(details[0].CurrentValue))
		assert.JSONEq(t, `2`, string(details[0].ProposedValue))

		stored, err := repo.GetByID(context.Background(), pc.ID)
		require.NoError(t, err)
		assert.Equal(t, pendingchange.StatusConflict, stored.Status)
	})

	t.Run("live drift the proposal already agrees with is not a conflict", func(t *testing.T) {
		svc, repo, reader := newTestService(t)
		resourceID := uuid.New()
		pc := submit(t, svc, resourceID,
			`{"population": 100}`,
			`{"population": 120}`,
		)
		// Someone else already applied the very value the submitter proposed.
		reader.states[resourceID] = json.RawMessage(`{"population": 120}`)

		details, err := svc.DetectConflicts(context.Background(), pc.ID)
		require.NoError(t, err)
		assert.Empty(t, details)

		stored, err := repo.GetByID(context.Background(), pc.ID)
		require.NoError(t, err)
		assert.Equal(t, pendingchange.StatusPending, stored.Status)
	})

	t.Run("metadata churn is ignored", func(t *testing.T) {
		svc, _, reader := newTestService(t)
		resourceID := uuid.New()
		pc := submit(t, svc, resourceID,
			`{"population": 100, "updatedAt": "2024-01-01T00:00:00Z"}`,
			`{"population": 120, "updatedAt": "2024-01-01T00:00:00Z"}`,
		)
		reader.states[resourceID] = json.RawMessage(`{"population": 100, "updatedAt": "2024-06-01T00:00:00Z"}`)

		details, err := svc.DetectConflicts(context.Background(), pc.ID)
		require.NoError(t, err)
		assert.Empty(t, details)
	})

	t.Run("conflict clears back to pending when the drift is reverted", func(t *testing.T) {
		svc, repo, reader := newTestService(t)
		resourceID := uuid.New()
		pc := submit(t, svc, resourceID,
			`{"population": 100}`,
			`{"population": 120}`,
		)
		reader.states[resourceID] = json.RawMessage(`{"population": 150}`)

		details, err := svc.DetectConflicts(context.Background(), pc.ID)
		require.NoError(t, err)
		require.Len(t, details, 1)

		reader.states[resourceID] = json.RawMessage(`{"population": 100}`)
		details, err = svc.DetectConflicts(context.Background(), pc.ID)
		require.NoError(t, err)
		assert.Empty(t, details)

		stored, err := repo.GetByID(context.Background(), pc.ID)
		require.NoError(t, err)
		assert.Equal(t, pendingchange.StatusPending, stored.Status)
		assert.Nil(t, stored.ConflictDetails)
	})

	t.Run("year-keyed proposal compares against the same year of the live record", func(t *testing.T) {
		svc, _, reader := newTestService(t)
		resourceID := uuid.New()
		pc := submit(t, svc, resourceID,
			`{"yearlyData": {"2024": {"population": 100}}}`,
			`{"yearlyData": {"2024": {"population": 120}}}`,
		)
		reader.states[resourceID] = json.RawMessage(`{"yearlyData": {"2023": {"population": 90}, "2024": {"population": 105}}}`)

		details, err := svc.DetectConflicts(context.Background(), pc.ID)
		require.NoError(t, err)
		require.Len(t, details, 1)
		assert.Equal(t, "population", details[0].Field)
		assert.JSONEq(t, `105`, string(details[0].CurrentValue))
	})

	t.Run("records no longer reviewable return stored details untouched", func(t *testing.T) {
		svc, repo, reader := newTestService(t)
		resourceID := uuid.New()
		pc := submit(t, svc, resourceID, `{"population": 100}`, `{"population": 120}`)

		_, err := svc.ReviewSubmission(context.Background(), pc.ID, pendingchange.DecisionApprove, reviewerID, "Ben Cruz", "")
		require.NoError(t, err)

		reader.states[resourceID] = json.RawMessage(`{"population": 999}`)
		details, err := svc.DetectConflicts(context.Background(), pc.ID)
		require.NoError(t, err)
		assert.Empty(t, details)

		stored, err := repo.GetByID(context.Background(), pc.ID)
		require.NoError(t, err)
		assert.Equal(t, pendingchange.StatusApproved, stored.Status)
	})
}

func TestStatusChangeNotifications(t *testing.T) {
	reviewerID := uuid.New()

	t.Run("review flips the seen flag off, acknowledgement flips it back", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		pc := submit(t, svc, uuid.New(), `{}`, `{"population": 120}`)

		_, err := svc.ReviewSubmission(context.Background(), pc.ID, pendingchange.DecisionReject, reviewerID, "Ben Cruz", "")
		require.NoError(t, err)

		stored, err := repo.GetByID(context.Background(), pc.ID)
		require.NoError(t, err)
		require.False(t, stored.StatusChangeSeenBySubmitter)

		require.NoError(t, svc.MarkStatusChangeAsSeen(context.Background(), pc.ID))

		stored, err = repo.GetByID(context.Background(), pc.ID)
		require.NoError(t, err)
		assert.True(t, stored.StatusChangeSeenBySubmitter)
	})

	t.Run("acknowledging twice is a no-op", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		pc := submit(t, svc, uuid.New(), `{}`, `{"population": 120}`)

		require.NoError(t, svc.MarkStatusChangeAsSeen(context.Background(), pc.ID))
		require.NoError(t, svc.MarkStatusChangeAsSeen(context.Background(), pc.ID))
	})

	t.Run("bulk acknowledgement counts only unseen records of the user", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		submitterID := uuid.New()

		var ids []uuid.UUID
		for i := 0; i < 3; i++ {
			pc, err := svc.CreateSubmission(context.Background(), services.CreateSubmissionParams{
				ResourceType:  resource.TypeSitio,
				ResourceID:    uuid.New(),
				ResourceName:  "Sitio Malagos",
				SubmitterID:   submitterID,
				SubmitterName: "Ana Reyes",
				ProposedData:  json.RawMessage(`{"population": 120}`),
			})
			require.NoError(t, err)
			ids = append(ids, pc.ID)
		}

		for _, id := range ids[:2] {
			_, err := svc.ReviewSubmission(context.Background(), id, pendingchange.DecisionReject, reviewerID, "Ben Cruz", "")
			require.NoError(t, err)
		}

		count, err := svc.MarkAllStatusChangesAsSeen(context.Background(), submitterID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = svc.MarkAllStatusChangesAsSeen(context.Background(), submitterID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestListFiltersAndClock(t *testing.T) {
	svc, _, _ := newTestService(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	resourceID := uuid.New()
	first := submit(t, svc, resourceID, `{}`, `{"population": 1}`)
	second := submit(t, svc, resourceID, `{}`, `{"population": 2}`)

	listed, err := svc.List(context.Background(), &pendingchange.FindParams{ResourceID: resourceID})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	// Newest first.
	assert.Equal(t, second.ID, listed[0].ID)
	assert.Equal(t, first.ID, listed[1].ID)

	count, err := svc.Count(context.Background(), &pendingchange.FindParams{Status: pendingchange.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
