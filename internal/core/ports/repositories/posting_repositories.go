package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bizledger/internal/core/domain"
)

// PostingRunRepository manages the idempotency records of posting attempts.
// Its writes happen outside any PostingTx so they survive a rolled back unit.
type PostingRunRepository interface {
	// CreatePostingRun inserts a STARTED run. A second run for the same
	// (tenant, transaction set) returns apperrors.ErrDuplicate.
	CreatePostingRun(ctx context.Context, run domain.PostingRun) error

	// FindPostingRunBySet returns apperrors.ErrNotFound when the set has no run.
	FindPostingRunBySet(ctx context.Context, tenantID, setID string) (*domain.PostingRun, error)

	// MarkPostingRunFailed moves a STARTED run to FAILED.
	MarkPostingRunFailed(ctx context.Context, runID, errMsg string, finishedAt time.Time) error

	// ListStuckPostingRuns returns STARTED runs of all tenants started before the cutoff.
	ListStuckPostingRuns(ctx context.Context, startedBefore time.Time) ([]domain.PostingRun, error)
}

// PostingTx is the set of writes that must commit or roll back together.
type PostingTx interface {
	// LockTransactionSet reads the set and holds it against concurrent writers until the unit ends.
	LockTransactionSet(ctx context.Context, tenantID, setID string) (*domain.TransactionSet, error)

	FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)

	InsertJournalEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error

	MarkTransactionSetPosted(ctx context.Context, tenantID, setID, actorID string, now time.Time) error

	MarkPostingRunSucceeded(ctx context.Context, runID, entryID string, finishedAt time.Time) error

	// MarkPostingRunFailed moves a STARTED run to FAILED; apperrors.ErrConflict when it is no longer STARTED.
	MarkPostingRunFailed(ctx context.Context, runID, errMsg string, finishedAt time.Time) error

	// DeleteFailedPostingRun removes a FAILED run; apperrors.ErrConflict for any other status.
	DeleteFailedPostingRun(ctx context.Context, runID string) error

	FindReversalLinkByOriginal(ctx context.Context, originalEntryID string) (*domain.ReversalLink, error)

	// InsertReversalLink returns apperrors.ErrDuplicate when the original is already linked.
	InsertReversalLink(ctx context.Context, link domain.ReversalLink) error

	InsertAuditEvent(ctx context.Context, event domain.AuditEvent) error
}

// UnitOfWork runs fn inside one atomic storage transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx PostingTx) error) error
}
