package pendingchange_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msu-projects/sitio-portal/modules/review/domain/pendingchange"
	"github.com/msu-projects/sitio-portal/modules/review/domain/resource"
)

func newChange(t *testing.T) *pendingchange.PendingChange {
	t.Helper()
	return pendingchange.New(
		resource.TypeSitio,
		uuid.New(),
		"Sitio Malipayon",
		uuid.New(),
		"Juan dela Cruz",
		json.RawMessage(`{"population":150}`),
		json.RawMessage(`{"population":100}`),
		"updated census",
		time.Now(),
	)
}

func TestCanEdit(t *testing.T) {
	t.Parallel()

	editable := map[pendingchange.Status]bool{
		pendingchange.StatusPending:       true,
		pendingchange.StatusNeedsRevision: true,
		pendingchange.StatusRejected:      true,
		pendingchange.StatusApproved:      false,
		pendingchange.StatusConflict:      false,
		pendingchange.StatusSuperseded:    false,
	}
	for status, want := range editable {
		assert.Equal(t, want, pendingchange.CanEdit(status), "CanEdit(%s)", status)
	}
}

func TestCanWithdraw(t *testing.T) {
	t.Parallel()

	for _, status := range []pendingchange.Status{
		pendingchange.StatusPending,
		pendingchange.StatusApproved,
		pendingchange.StatusRejected,
		pendingchange.StatusNeedsRevision,
		pendingchange.StatusConflict,
		pendingchange.StatusSuperseded,
	} {
		want := status == pendingchange.StatusPending
		assert.Equal(t, want, pendingchange.CanWithdraw(status), "CanWithdraw(%s)", status)
	}
}

func TestCanReview(t *testing.T) {
	t.Parallel()

	reviewable := map[pendingchange.Status]bool{
		pendingchange.StatusPending:       true,
		pendingchange.StatusNeedsRevision: true,
		pendingchange.StatusConflict:      true,
		pendingchange.StatusApproved:      false,
		pendingchange.StatusRejected:      false,
		pendingchange.StatusSuperseded:    false,
	}
	for status, want := range reviewable {
		assert.Equal(t, want, pendingchange.CanReview(status), "CanReview(%s)", status)
	}
}

func TestNew_InitialState(t *testing.T) {
	t.Parallel()

	pc := newChange(t)
	assert.Equal(t, pendingchange.StatusPending, pc.Status)
	require.Len(t, pc.RevisionHistory, 1)
	assert.Equal(t, pendingchange.RevisionSubmitted, pc.RevisionHistory[0].Action)
	assert.Equal(t, pc.SubmittedByUserID, pc.RevisionHistory[0].UserID)
	assert.True(t, pc.StatusChangeSeenBySubmitter)
	assert.Empty(t, pc.ConflictDetails)
}

func TestApplyReview_Approve(t *testing.T) {
	t.Parallel()

	pc := newChange(t)
	reviewerID := uuid.New()
	now := time.Now()

	require.NoError(t, pc.ApplyReview(pendingchange.DecisionApprove, reviewerID, "Maria Santos", "looks good", now))
	assert.Equal(t, pendingchange.StatusApproved, pc.Status)
	assert.Equal(t, reviewerID, pc.ReviewedByUserID)
	require.NotNil(t, pc.ReviewedAt)
	assert.False(t, pc.StatusChangeSeenBySubmitter)
	require.Len(t, pc.RevisionHistory, 2)
	assert.Equal(t, pendingchange.RevisionApproved, pc.RevisionHistory[1].Action)
}

func TestApplyReview_FromTerminalStatusFails(t *testing.T) {
	t.Parallel()

	pc := newChange(t)
	require.NoError(t, pc.ApplyReview(pendingchange.DecisionApprove, uuid.New(), "Maria Santos", "", time.Now()))

	err := pc.ApplyReview(pendingchange.DecisionReject, uuid.New(), "Maria Santos", "", time.Now())
	require.ErrorIs(t, err, pendingchange.ErrInvalidTransition)
	assert.Equal(t, pendingchange.StatusApproved, pc.Status)
	assert.Len(t, pc.RevisionHistory, 2)
}

func TestApplyReview_FromConflictClearsDetails(t *testing.T) {
	t.Parallel()

	pc := newChange(t)
	pc.SetConflicts([]pendingchange.ConflictDetail{{
		Field:         "population",
		CurrentValue:  json.RawMessage(`120`),
		ProposedValue: json.RawMessage(`150`),
	}}, time.Now())
	require.Equal(t, pendingchange.StatusConflict, pc.Status)

	require.NoError(t, pc.ApplyReview(pendingchange.DecisionReject, uuid.New(), "Maria Santos", "stale", time.Now()))
	assert.Equal(t, pendingchange.StatusRejected, pc.Status)
	assert.Empty(t, pc.ConflictDetails)
}

func TestEdit_WhilePendingKeepsHistory(t *testing.T) {
	t.Parallel()

	pc := newChange(t)
	require.NoError(t, pc.Edit(json.RawMessage(`{"population":160}`), "typo fix", time.Now()))
	assert.Equal(t, pendingchange.StatusPending, pc.Status)
	assert.Len(t, pc.RevisionHistory, 1, "silent edit while pending appends no entry")
	assert.JSONEq(t, `{"population":160}`, string(pc.ProposedData))
	assert.Equal(t, "typo fix", pc.SubmitterComment)
}

func TestEdit_AfterRevisionRequestResubmits(t *testing.T) {
	t.Parallel()

	pc := newChange(t)
	require.NoError(t, pc.ApplyReview(pendingchange.DecisionRequestRevision, uuid.New(), "Maria Santos", "add households", time.Now()))
	require.Equal(t, pendingchange.StatusNeedsRevision, pc.Status)

	require.NoError(t, pc.Edit(json.RawMessage(`{"population":150,"households":30}`), "added", time.Now()))
	assert.Equal(t, pendingchange.StatusPending, pc.Status)
	require.Len(t, pc.RevisionHistory, 3)
	assert.Equal(t, pendingchange.RevisionResubmitted, pc.RevisionHistory[2].Action)
}

func TestEdit_AfterRejectionResubmits(t *testing.T) {
	t.Parallel()

	pc := newChange(t)
	require.NoError(t, pc.ApplyReview(pendingchange.DecisionReject, uuid.New(), "Maria Santos", "", time.Now()))

	require.NoError(t, pc.Edit(json.RawMessage(`{"population":140}`), "reworked", time.Now()))
	assert.Equal(t, pendingchange.StatusPending, pc.Status)
	assert.Equal(t, pendingchange.RevisionResubmitted, pc.RevisionHistory[len(pc.RevisionHistory)-1].Action)
}

func TestEdit_WhileApprovedFails(t *testing.T) {
	t.Parallel()

	pc := newChange(t)
	require.NoError(t, pc.ApplyReview(pendingchange.DecisionApprove, uuid.New(), "Maria Santos", "", time.Now()))

	before := *pc
	err := pc.Edit(json.RawMessage(`{"population":999}`), "late edit", time.Now())
	require.ErrorIs(t, err, pendingchange.ErrInvalidTransition)
	assert.Equal(t, before.Status, pc.Status)
	assert.JSONEq(t, string(before.ProposedData), string(pc.ProposedData))
}

func TestSetConflicts_ForcesAndClears(t *testing.T) {
	t.Parallel()

	pc := newChange(t)
	details := []pendingchange.ConflictDetail{{
		Field:         "population",
		CurrentValue:  json.RawMessage(`120`),
		ProposedValue: json.RawMessage(`150`),
	}}

	pc.SetConflicts(details, time.Now())
	assert.Equal(t, pendingchange.StatusConflict, pc.Status)
	assert.Len(t, pc.ConflictDetails, 1)

	// Re-running detection against a repaired live record clears the flag.
	pc.SetConflicts(nil, time.Now())
	assert.Equal(t, pendingchange.StatusPending, pc.Status)
	assert.Empty(t, pc.ConflictDetails)
}

func TestSetConflicts_EmptySetLeavesNonConflictAlone(t *testing.T) {
	t.Parallel()

	pc := newChange(t)
	require.NoError(t, pc.ApplyReview(pendingchange.DecisionRequestRevision, uuid.New(), "Maria Santos", "", time.Now()))

	pc.SetConflicts(nil, time.Now())
	assert.Equal(t, pendingchange.StatusNeedsRevision, pc.Status)
}

func TestSupersede(t *testing.T) {
	t.Parallel()

	pc := newChange(t)
	pc.Supersede(time.Now())
	assert.Equal(t, pendingchange.StatusSuperseded, pc.Status)
	assert.False(t, pc.StatusChangeSeenBySubmitter)
	assert.False(t, pendingchange.CanEdit(pc.Status))
	assert.False(t, pendingchange.CanWithdraw(pc.Status))
	assert.False(t, pendingchange.CanReview(pc.Status))
}

func TestRevisionHistory_Chronological(t *testing.T) {
	t.Parallel()

	pc := newChange(t)
	base := pc.RevisionHistory[0].Timestamp

	// A clock reading older than the last ledger entry must not produce an
	// out-of-order history.
	require.NoError(t, pc.ApplyReview(pendingchange.DecisionRequestRevision, uuid.New(), "Maria Santos", "", base.Add(-time.Hour)))
	require.NoError(t, pc.Edit(json.RawMessage(`{"population":155}`), "", base.Add(time.Minute)))

	for i := 1; i < len(pc.RevisionHistory); i++ {
		assert.False(t, pc.RevisionHistory[i].Timestamp.Before(pc.RevisionHistory[i-1].Timestamp),
			"history must be chronologically non-decreasing")
	}
}
