package domain

import "time"

// PostingRunStatus is the state of a posting attempt.
type PostingRunStatus string

const (
	RunStarted   PostingRunStatus = "STARTED"
	RunSucceeded PostingRunStatus = "SUCCEEDED"
	RunFailed    PostingRunStatus = "FAILED"
)

// PostingRun is the idempotency record of a transaction set: at most one exists per
// (TenantID, TransactionSetID).
type PostingRun struct {
	ID               string           `json:"id"`
	TenantID         string           `json:"tenantID"`
	TransactionSetID string           `json:"transactionSetID"`
	Status           PostingRunStatus `json:"status"`
	JournalEntryID   *string          `json:"journalEntryID,omitempty"`
	StartedByActorID string           `json:"startedByActorID"`
	StartedAt        time.Time        `json:"startedAt"`
	FinishedAt       *time.Time       `json:"finishedAt,omitempty"`
	Error            *string          `json:"error,omitempty"`
}

// IsStuck reports whether a started run has outlived the timeout.
func (r PostingRun) IsStuck(now time.Time, timeout time.Duration) bool {
	return r.Status == RunStarted && now.Sub(r.StartedAt) > timeout
}
