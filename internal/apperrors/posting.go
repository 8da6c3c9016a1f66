package apperrors

import (
	"errors"
	"fmt"
)

// PostingErrorKind classifies a business-rule failure of the posting kernel or reversal engine.
type PostingErrorKind string

const (
	KindInvalidState          PostingErrorKind = "INVALID_STATE"
	KindIntentMissing         PostingErrorKind = "INTENT_MISSING"
	KindIntentStale           PostingErrorKind = "INTENT_STALE"
	KindIntentResolution      PostingErrorKind = "INTENT_RESOLUTION"
	KindApprovalRequired      PostingErrorKind = "APPROVAL_REQUIRED"
	KindApprovalRejected      PostingErrorKind = "APPROVAL_REJECTED"
	KindPostingInProgress     PostingErrorKind = "POSTING_IN_PROGRESS"
	KindPreviousAttemptFailed PostingErrorKind = "PREVIOUS_ATTEMPT_FAILED"
	KindUnbalancedIntent      PostingErrorKind = "UNBALANCED_INTENT"
	KindNotFound              PostingErrorKind = "NOT_FOUND"
	KindAlreadyReversed       PostingErrorKind = "ALREADY_REVERSED"
)

var (
	ErrInvalidState          = errors.New("entity is not in a state that allows this operation")
	ErrIntentMissing         = errors.New("no posting intent exists for transaction set")
	ErrIntentStale           = errors.New("posting intent is stale")
	ErrIntentResolution      = errors.New("posting intent could not be resolved")
	ErrApprovalRequired      = errors.New("approval required before posting")
	ErrApprovalRejected      = errors.New("approval was rejected")
	ErrPostingInProgress     = errors.New("posting already in progress")
	ErrPreviousAttemptFailed = errors.New("previous posting attempt failed")
	ErrUnbalancedIntent      = errors.New("posting intent does not balance")
	ErrAlreadyReversed       = errors.New("journal entry already reversed")
)

var postingSentinels = map[PostingErrorKind]error{
	KindInvalidState:          ErrInvalidState,
	KindIntentMissing:         ErrIntentMissing,
	KindIntentStale:           ErrIntentStale,
	KindIntentResolution:      ErrIntentResolution,
	KindApprovalRequired:      ErrApprovalRequired,
	KindApprovalRejected:      ErrApprovalRejected,
	KindPostingInProgress:     ErrPostingInProgress,
	KindPreviousAttemptFailed: ErrPreviousAttemptFailed,
	KindUnbalancedIntent:      ErrUnbalancedIntent,
	KindNotFound:              ErrNotFound,
	KindAlreadyReversed:       ErrAlreadyReversed,
}

// PostingError carries enough context for a caller to render a user-facing message:
// the entity involved and, where relevant, the expected and actual state.
type PostingError struct {
	Kind     PostingErrorKind
	EntityID string
	Expected string
	Actual   string
	Message  string
	Err      error
}

// NewPostingError creates a PostingError of the given kind.
func NewPostingError(kind PostingErrorKind, entityID string, message string) *PostingError {
	return &PostingError{Kind: kind, EntityID: entityID, Message: message}
}

// WithState records the expected and observed states.
func (e *PostingError) WithState(expected, actual string) *PostingError {
	e.Expected = expected
	e.Actual = actual
	return e
}

// WithCause attaches an underlying error.
func (e *PostingError) WithCause(err error) *PostingError {
	e.Err = err
	return e
}

func (e *PostingError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.EntityID != "" {
		msg += fmt.Sprintf(" (id=%s)", e.EntityID)
	}
	if e.Expected != "" || e.Actual != "" {
		msg += fmt.Sprintf(" expected=%s actual=%s", e.Expected, e.Actual)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PostingError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind's sentinel.
func (e *PostingError) Is(target error) bool {
	sentinel, ok := postingSentinels[e.Kind]
	return ok && sentinel == target
}

// AsPostingError extracts a PostingError from an error chain.
func AsPostingError(err error) (*PostingError, bool) {
	var pe *PostingError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
