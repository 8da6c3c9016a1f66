package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bizledger/internal/core/domain"
)

// TransactionSetReader defines read operations for transaction sets.
type TransactionSetReader interface {
	FindTransactionSetByID(ctx context.Context, tenantID, setID string) (*domain.TransactionSet, error)

	// ListBusinessTransactions returns the set's business transactions in insertion order.
	ListBusinessTransactions(ctx context.Context, tenantID, setID string) ([]domain.BusinessTransaction, error)
}

// TransactionSetWriter defines write operations for transaction sets.
// Mutations that depend on the set status are conditional and return apperrors.ErrConflict
// when the status no longer matches.
type TransactionSetWriter interface {
	SaveTransactionSet(ctx context.Context, set domain.TransactionSet) error

	// AddBusinessTransaction stores bt on a DRAFT set and bumps the set version.
	AddBusinessTransaction(ctx context.Context, tenantID string, bt domain.BusinessTransaction, actorID string, now time.Time) (int64, error)

	// RemoveBusinessTransaction deletes bt from a DRAFT set and bumps the set version.
	RemoveBusinessTransaction(ctx context.Context, tenantID, setID, btID, actorID string, now time.Time) (int64, error)

	// UpdateTransactionSetStatus moves the set from one status to another.
	UpdateTransactionSetStatus(ctx context.Context, tenantID, setID string, from, to domain.TransactionSetStatus, actorID string, now time.Time) error
}

// TransactionSetRepositoryFacade combines transaction set reads and writes.
type TransactionSetRepositoryFacade interface {
	TransactionSetReader
	TransactionSetWriter
}

// PostingIntentRepository stores the append-only posting intents of transaction sets.
type PostingIntentRepository interface {
	SavePostingIntent(ctx context.Context, tenantID string, intent domain.PostingIntent) error

	// FindLatestPostingIntent returns apperrors.ErrNotFound when the set has no intent.
	FindLatestPostingIntent(ctx context.Context, tenantID, setID string) (*domain.PostingIntent, error)
}

// ApprovalRepository stores approvals.
type ApprovalRepository interface {
	SaveApproval(ctx context.Context, approval domain.Approval) error
	FindApprovalByID(ctx context.Context, tenantID, approvalID string) (*domain.Approval, error)

	// FindLatestApproval returns apperrors.ErrNotFound when the entity has no approval.
	FindLatestApproval(ctx context.Context, tenantID, entityType, entityID string) (*domain.Approval, error)

	// DecideApproval records a decision on a PENDING approval.
	DecideApproval(ctx context.Context, tenantID, approvalID string, status domain.ApprovalStatus, deciderID string, decidedAt time.Time) error
}
