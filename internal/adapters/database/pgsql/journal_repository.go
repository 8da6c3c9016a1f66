package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
	"github.com/SscSPs/bizledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const journalEntryColumns = `id, tenant_id, posting_date, entry_date, memo, source_transaction_set_id, posted_by_actor_id, posted_at`

// PgxJournalRepository reads journal entries, lines, reversal links and audit events.
// Writes to those tables only happen through a PostingTx.
type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal data.
func newPgxJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

func scanJournalEntry(row pgx.Row) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := row.Scan(
		&e.ID,
		&e.TenantID,
		&e.PostingDate,
		&e.EntryDate,
		&e.Memo,
		&e.SourceTransactionSetID,
		&e.PostedByActorID,
		&e.PostedAt,
	)
	return e, err
}

func (r *PgxJournalRepository) FindJournalEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + journalEntryColumns + ` FROM journal_entries WHERE tenant_id = $1 AND id = $2;`
	e, err := scanJournalEntry(r.Pool.QueryRow(ctx, query, tenantID, entryID))
	if err != nil {
		return nil, mapReadError(err, "find journal entry %s", entryID)
	}
	return &e, nil
}

// FindJournalLines returns the lines of an entry ordered by line number.
func (r *PgxJournalRepository) FindJournalLines(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT id, journal_entry_id, line_no, account_id, debit, credit, description
		FROM journal_lines
		WHERE journal_entry_id = $1
		ORDER BY line_no;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines of journal entry %s: %w", entryID, err)
	}
	defer rows.Close()

	lines := make([]domain.JournalLine, 0)
	for rows.Next() {
		var l domain.JournalLine
		if err := rows.Scan(&l.ID, &l.JournalEntryID, &l.LineNo, &l.AccountID, &l.Debit, &l.Credit, &l.Description); err != nil {
			return nil, fmt.Errorf("failed to scan journal line row: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal line rows: %w", err)
	}
	return lines, nil
}

// ListJournalEntries pages newest first by (posting date, posted at, id).
func (r *PgxJournalRepository) ListJournalEntries(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := []any{tenantID, limit + 1}
	query := `SELECT ` + journalEntryColumns + ` FROM journal_entries WHERE tenant_id = $1`
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (posting_date, posted_at, id) < ($3, $4, $5)`
		args = append(args, cursor.PostingDate, cursor.PostedAt, cursor.EntryID)
	}
	query += ` ORDER BY posting_date DESC, posted_at DESC, id DESC LIMIT $2;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.JournalEntry, 0, limit+1)
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan journal entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating journal entry rows: %w", err)
	}

	if len(entries) <= limit {
		return entries, nil, nil
	}
	page := entries[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(pagination.JournalCursor{PostingDate: last.PostingDate, PostedAt: last.PostedAt, EntryID: last.ID})
	return page, &token, nil
}

// SumLinesByAccount totals the columns per account for entries posted on or before asOf,
// in the order of accountIDs. Accounts without lines get zero totals.
func (r *PgxJournalRepository) SumLinesByAccount(ctx context.Context, tenantID string, accountIDs []string, asOf time.Time) ([]domain.LineTotals, error) {
	query := `
		SELECT a.id, COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM unnest($2::text[]) WITH ORDINALITY AS a(id, ord)
		LEFT JOIN journal_lines l ON l.account_id = a.id
			AND EXISTS (
				SELECT 1 FROM journal_entries e
				WHERE e.id = l.journal_entry_id AND e.tenant_id = $1 AND e.posting_date <= $3
			)
		GROUP BY a.id, a.ord
		ORDER BY a.ord;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, accountIDs, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to sum journal lines: %w", err)
	}
	defer rows.Close()

	totals := make([]domain.LineTotals, 0, len(accountIDs))
	for rows.Next() {
		var t domain.LineTotals
		if err := rows.Scan(&t.AccountID, &t.Debits, &t.Credits); err != nil {
			return nil, fmt.Errorf("failed to scan line totals row: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line totals rows: %w", err)
	}
	return totals, nil
}

const reversalLinkColumns = `id, original_journal_entry_id, reversal_journal_entry_id, reason, created_by_actor_id, created_at`

func findReversalLink(ctx context.Context, q querier, column, entryID string) (*domain.ReversalLink, error) {
	query := `SELECT ` + reversalLinkColumns + ` FROM reversal_links WHERE ` + column + ` = $1;`
	var link domain.ReversalLink
	err := q.QueryRow(ctx, query, entryID).Scan(
		&link.ID,
		&link.OriginalJournalEntryID,
		&link.ReversalJournalEntryID,
		&link.Reason,
		&link.CreatedByActorID,
		&link.CreatedAt,
	)
	if err != nil {
		return nil, mapReadError(err, "find reversal link of %s", entryID)
	}
	return &link, nil
}

func (r *PgxJournalRepository) FindReversalLinkByOriginal(ctx context.Context, originalEntryID string) (*domain.ReversalLink, error) {
	return findReversalLink(ctx, r.Pool, "original_journal_entry_id", originalEntryID)
}

func (r *PgxJournalRepository) FindReversalLinkByReversal(ctx context.Context, reversalEntryID string) (*domain.ReversalLink, error) {
	return findReversalLink(ctx, r.Pool, "reversal_journal_entry_id", reversalEntryID)
}

// ListAuditEvents lists audit events of an entity, oldest first.
func (r *PgxJournalRepository) ListAuditEvents(ctx context.Context, tenantID, entityType, entityID string) ([]domain.AuditEvent, error) {
	query := `
		SELECT id, tenant_id, entity_type, entity_id, action, actor_id, metadata, created_at
		FROM audit_events
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY seq;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.AuditEvent, 0)
	for rows.Next() {
		var e domain.AuditEvent
		if err := rows.Scan(&e.ID, &e.TenantID, &e.EntityType, &e.EntityID, &e.Action, &e.ActorID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit event rows: %w", err)
	}
	return events, nil
}
