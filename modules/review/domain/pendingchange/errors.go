package pendingchange

import "github.com/msu-projects/sitio-portal/pkg/serrors"

var (
	// ErrNotFound is returned for operations on a nonexistent pending change.
	ErrNotFound = serrors.NewError("REVIEW_NOT_FOUND", "pending change not found", "Review.Errors.NotFound")
	// ErrInvalidTransition is returned when an action is attempted outside
	// the transition table's guards. The record is left untouched.
	ErrInvalidTransition = serrors.NewError("REVIEW_INVALID_TRANSITION", "operation not allowed in current status", "Review.Errors.InvalidTransition")
	// ErrMalformedPayload is returned when proposed or original data is not
	// valid structured data.
	ErrMalformedPayload = serrors.NewError("REVIEW_MALFORMED_PAYLOAD", "proposed data is not valid structured data", "Review.Errors.MalformedPayload")
	// ErrNotSubmitter is returned when a submitter-only operation is
	// attempted by a different user.
	ErrNotSubmitter = serrors.NewError("REVIEW_NOT_SUBMITTER", "only the submitter may perform this operation", "Review.Errors.NotSubmitter")
)
