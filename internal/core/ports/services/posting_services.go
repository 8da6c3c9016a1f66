package services

import (
	"context"
	"time"

	"github.com/SscSPs/bizledger/internal/core/domain"
	"github.com/SscSPs/bizledger/internal/dto"
)

// ApprovalGate answers whether an entity is clear to post.
type ApprovalGate interface {
	Check(ctx context.Context, tenantID, entityType, entityID string) (domain.GateDecision, error)
}

// ApprovalSvcFacade manages approvals and exposes the gate.
type ApprovalSvcFacade interface {
	ApprovalGate

	RequestApproval(ctx context.Context, tenantID string, req dto.RequestApprovalRequest, actorID string) (*domain.Approval, error)

	// DecideApproval records a terminal decision. The decider must hold the approval's required role.
	DecideApproval(ctx context.Context, tenantID, approvalID string, decision domain.ApprovalStatus, deciderID string, deciderRoles []string) (*domain.Approval, error)
}

// PostingKernel turns a reviewed transaction set into exactly one journal entry.
type PostingKernel interface {
	Post(ctx context.Context, tenantID, setID, actorID string) (string, error)
}

// ReversalEngine offsets a posted journal entry with a mirrored one.
type ReversalEngine interface {
	// Reverse posts the reversal dated today, or on the original's date when that is later.
	Reverse(ctx context.Context, tenantID, entryID, reason, actorID string) (string, error)

	// ReverseOn posts the reversal on the given posting date, which may not precede the original's.
	ReverseOn(ctx context.Context, tenantID, entryID, reason, actorID string, postingDate time.Time) (string, error)
}

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	GetJournalEntry(ctx context.Context, tenantID, entryID string) (*dto.GetJournalEntryResponse, error)
	ListJournalEntries(ctx context.Context, tenantID string, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error)
}

// OperatorSvc holds the explicit, audited recovery actions on posting runs.
type OperatorSvc interface {
	// RetryFailedRun clears the FAILED run of a set so the next post starts a fresh run.
	RetryFailedRun(ctx context.Context, tenantID, setID, actorID, reason string) error

	// SweepStuckRuns marks STARTED runs older than olderThan as FAILED and returns them.
	SweepStuckRuns(ctx context.Context, olderThan time.Duration, actorID string) ([]domain.PostingRun, error)
}
