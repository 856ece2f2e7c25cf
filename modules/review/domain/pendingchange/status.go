package pendingchange

// Status is the review lifecycle state of a pending change.
type Status string

const (
	StatusPending       Status = "pending"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusNeedsRevision Status = "needs_revision"
	StatusConflict      Status = "conflict"
	StatusSuperseded    Status = "superseded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusNeedsRevision, StatusConflict, StatusSuperseded:
		return true
	}
	return false
}

// Action is an operation a submitter or reviewer performs on a pending change.
type Action string

const (
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionRequestRevision Action = "request_revision"
	ActionEdit            Action = "edit"
	ActionWithdraw        Action = "withdraw"
)

type transitionKey struct {
	from   Status
	action Action
}

// transitions is the full state graph. An absent key is an illegal
// transition; there is no other transition logic anywhere.
//
// Withdraw maps to the current status because it removes the record rather
// than moving it; its legality is what the table encodes. Superseded has no
// incoming transition here: it is applied by the supersede policy when a
// sibling submission for the same resource is approved.
var transitions = map[transitionKey]Status{
	{StatusPending, ActionApprove}:               StatusApproved,
	{StatusNeedsRevision, ActionApprove}:         StatusApproved,
	{StatusConflict, ActionApprove}:              StatusApproved,
	{StatusPending, ActionReject}:                StatusRejected,
	{StatusNeedsRevision, ActionReject}:          StatusRejected,
	{StatusConflict, ActionReject}:               StatusRejected,
	{StatusPending, ActionRequestRevision}:       StatusNeedsRevision,
	{StatusNeedsRevision, ActionRequestRevision}: StatusNeedsRevision,
	{StatusConflict, ActionRequestRevision}:      StatusNeedsRevision,
	{StatusPending, ActionEdit}:                  StatusPending,
	{StatusNeedsRevision, ActionEdit}:            StatusPending,
	{StatusRejected, ActionEdit}:                 StatusPending,
	{StatusPending, ActionWithdraw}:              StatusPending,
}

// NextStatus resolves the target status for an action, reporting false for
// illegal transitions.
func NextStatus(from Status, action Action) (Status, bool) {
	to, ok := transitions[transitionKey{from, action}]
	return to, ok
}

// CanEdit reports whether the submitter may overwrite the proposal. Rejected
// is deliberately re-enterable: editing a rejected submission resubmits it.
func CanEdit(s Status) bool {
	_, ok := transitions[transitionKey{s, ActionEdit}]
	return ok
}

// CanWithdraw reports whether the submitter may withdraw (delete) the record.
func CanWithdraw(s Status) bool {
	_, ok := transitions[transitionKey{s, ActionWithdraw}]
	return ok
}

// CanReview reports whether a reviewer decision may be applied.
func CanReview(s Status) bool {
	_, ok := transitions[transitionKey{s, ActionApprove}]
	return ok
}
