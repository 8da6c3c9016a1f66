package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bizledger/internal/core/domain"
)

// JournalReader defines read operations for journal data. There is no writer counterpart:
// entries and lines are only inserted inside a PostingTx.
type JournalReader interface {
	// FindJournalEntryByID retrieves a specific entry of the tenant.
	FindJournalEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error)

	// FindJournalLines returns the lines of an entry ordered by line number.
	FindJournalLines(ctx context.Context, entryID string) ([]domain.JournalLine, error)

	// ListJournalEntries retrieves a page of entries, newest posting date first.
	// It returns the entries, a token for the next page, and an error.
	ListJournalEntries(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// SumLinesByAccount totals debits and credits per account for entries posted on or before asOf.
	SumLinesByAccount(ctx context.Context, tenantID string, accountIDs []string, asOf time.Time) ([]domain.LineTotals, error)
}

// ReversalReader defines read operations for reversal links.
type ReversalReader interface {
	// FindReversalLinkByOriginal returns apperrors.ErrNotFound when the entry was never reversed.
	FindReversalLinkByOriginal(ctx context.Context, originalEntryID string) (*domain.ReversalLink, error)

	// FindReversalLinkByReversal returns the link whose reversal side is entryID.
	FindReversalLinkByReversal(ctx context.Context, reversalEntryID string) (*domain.ReversalLink, error)
}

// AuditReader lists audit events of an entity, oldest first.
type AuditReader interface {
	ListAuditEvents(ctx context.Context, tenantID, entityType, entityID string) ([]domain.AuditEvent, error)
}

// JournalRepositoryFacade combines all journal-related read interfaces
type JournalRepositoryFacade interface {
	JournalReader
	ReversalReader
	AuditReader
}
