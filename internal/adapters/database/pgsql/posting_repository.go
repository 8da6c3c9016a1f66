package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postingRunColumns = `id, tenant_id, transaction_set_id, status, journal_entry_id, started_by_actor_id, started_at, finished_at, error`

// PgxPostingRunRepository stores posting runs. The unique (tenant_id, transaction_set_id) constraint
// is what serialises concurrent posts of one set.
type PgxPostingRunRepository struct {
	BaseRepository
}

func newPgxPostingRunRepository(pool *pgxpool.Pool) *PgxPostingRunRepository {
	return &PgxPostingRunRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PostingRunRepository = (*PgxPostingRunRepository)(nil)

func scanPostingRun(row pgx.Row) (*domain.PostingRun, error) {
	var run domain.PostingRun
	err := row.Scan(
		&run.ID,
		&run.TenantID,
		&run.TransactionSetID,
		&run.Status,
		&run.JournalEntryID,
		&run.StartedByActorID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Error,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *PgxPostingRunRepository) CreatePostingRun(ctx context.Context, run domain.PostingRun) error {
	query := `INSERT INTO posting_runs (` + postingRunColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
	_, err := r.Pool.Exec(ctx, query,
		run.ID, run.TenantID, run.TransactionSetID, run.Status, run.JournalEntryID,
		run.StartedByActorID, run.StartedAt, run.FinishedAt, run.Error,
	)
	if err != nil {
		return mapWriteError(err, "create posting run for set %s", run.TransactionSetID)
	}
	return nil
}

func (r *PgxPostingRunRepository) FindPostingRunBySet(ctx context.Context, tenantID, setID string) (*domain.PostingRun, error) {
	query := `SELECT ` + postingRunColumns + ` FROM posting_runs WHERE tenant_id = $1 AND transaction_set_id = $2;`
	run, err := scanPostingRun(r.Pool.QueryRow(ctx, query, tenantID, setID))
	if err != nil {
		return nil, mapReadError(err, "find posting run of set %s", setID)
	}
	return run, nil
}

func (r *PgxPostingRunRepository) MarkPostingRunFailed(ctx context.Context, runID, errMsg string, finishedAt time.Time) error {
	return markRunFailed(ctx, r.Pool, runID, errMsg, finishedAt)
}

// ListStuckPostingRuns returns STARTED runs of all tenants started before the cutoff, oldest first.
func (r *PgxPostingRunRepository) ListStuckPostingRuns(ctx context.Context, startedBefore time.Time) ([]domain.PostingRun, error) {
	query := `SELECT ` + postingRunColumns + ` FROM posting_runs WHERE status = 'STARTED' AND started_at < $1 ORDER BY started_at;`
	rows, err := r.Pool.Query(ctx, query, startedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck posting runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.PostingRun, 0)
	for rows.Next() {
		run, err := scanPostingRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan posting run row: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posting run rows: %w", err)
	}
	return runs, nil
}

// transitionRun moves a run out of fromStatus. ErrNotFound for an unknown run, ErrConflict for any other status.
func transitionRun(ctx context.Context, q querier, runID string, fromStatus domain.PostingRunStatus, query string, args ...any) error {
	tag, err := q.Exec(ctx, query, append([]any{runID, fromStatus}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update posting run %s: %w", runID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posting_runs WHERE id = $1);`, runID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up posting run %s: %w", runID, err)
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrConflict
}

func markRunFailed(ctx context.Context, q querier, runID, errMsg string, finishedAt time.Time) error {
	return transitionRun(ctx, q, runID, domain.RunStarted,
		`UPDATE posting_runs SET status = 'FAILED', error = $3, finished_at = $4 WHERE id = $1 AND status = $2;`,
		errMsg, finishedAt)
}

// PgxUnitOfWork runs a PostingTx on one database transaction.
type PgxUnitOfWork struct {
	BaseRepository
}

func newPgxUnitOfWork(pool *pgxpool.Pool) *PgxUnitOfWork {
	return &PgxUnitOfWork{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.UnitOfWork = (*PgxUnitOfWork)(nil)

// RunInTx commits when fn returns nil and rolls back on error or panic.
func (u *PgxUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.PostingTx) error) error {
	tx, err := u.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = u.Rollback(context.WithoutCancel(ctx), tx)
			panic(p)
		}
	}()

	if err := fn(ctx, &pgxPostingTx{tx: tx}); err != nil {
		_ = u.Rollback(context.WithoutCancel(ctx), tx)
		return err
	}
	return u.Commit(ctx, tx)
}

type pgxPostingTx struct {
	tx pgx.Tx
}

var _ portsrepo.PostingTx = (*pgxPostingTx)(nil)

func (t *pgxPostingTx) LockTransactionSet(ctx context.Context, tenantID, setID string) (*domain.TransactionSet, error) {
	return findTransactionSet(ctx, t.tx, tenantID, setID, true)
}

func (t *pgxPostingTx) FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	return findAccountsByIDs(ctx, t.tx, tenantID, accountIDs, true)
}

// InsertJournalEntry inserts the entry and batches its lines.
func (t *pgxPostingTx) InsertJournalEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	query := `INSERT INTO journal_entries (` + journalEntryColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	_, err := t.tx.Exec(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.PostingDate,
		entry.EntryDate,
		entry.Memo,
		entry.SourceTransactionSetID,
		entry.PostedByActorID,
		entry.PostedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert journal entry %s", entry.ID)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO journal_lines (id, journal_entry_id, line_no, account_id, debit, credit, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, l := range lines {
		batch.Queue(lineQuery, l.ID, entry.ID, l.LineNo, l.AccountID, l.Debit, l.Credit, l.Description)
	}
	br := t.tx.SendBatch(ctx, batch)
	for range lines {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return mapWriteError(err, "insert lines of journal entry %s", entry.ID)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close journal line batch: %w", err)
	}
	return nil
}

func (t *pgxPostingTx) MarkTransactionSetPosted(ctx context.Context, tenantID, setID, actorID string, now time.Time) error {
	return updateSetStatus(ctx, t.tx, tenantID, setID, domain.SetReview, domain.SetPosted, actorID, now)
}

func (t *pgxPostingTx) MarkPostingRunSucceeded(ctx context.Context, runID, entryID string, finishedAt time.Time) error {
	return transitionRun(ctx, t.tx, runID, domain.RunStarted,
		`UPDATE posting_runs SET status = 'SUCCEEDED', journal_entry_id = $3, finished_at = $4 WHERE id = $1 AND status = $2;`,
		entryID, finishedAt)
}

func (t *pgxPostingTx) MarkPostingRunFailed(ctx context.Context, runID, errMsg string, finishedAt time.Time) error {
	return markRunFailed(ctx, t.tx, runID, errMsg, finishedAt)
}

func (t *pgxPostingTx) DeleteFailedPostingRun(ctx context.Context, runID string) error {
	return transitionRun(ctx, t.tx, runID, domain.RunFailed, `DELETE FROM posting_runs WHERE id = $1 AND status = $2;`)
}

func (t *pgxPostingTx) FindReversalLinkByOriginal(ctx context.Context, originalEntryID string) (*domain.ReversalLink, error) {
	return findReversalLink(ctx, t.tx, "original_journal_entry_id", originalEntryID)
}

func (t *pgxPostingTx) InsertReversalLink(ctx context.Context, link domain.ReversalLink) error {
	query := `INSERT INTO reversal_links (` + reversalLinkColumns + `) VALUES ($1, $2, $3, $4, $5, $6);`
	_, err := t.tx.Exec(ctx, query,
		link.ID,
		link.OriginalJournalEntryID,
		link.ReversalJournalEntryID,
		link.Reason,
		link.CreatedByActorID,
		link.CreatedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert reversal link of %s", link.OriginalJournalEntryID)
	}
	return nil
}

func (t *pgxPostingTx) InsertAuditEvent(ctx context.Context, event domain.AuditEvent) error {
	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	query := `
		INSERT INTO audit_events (id, tenant_id, entity_type, entity_id, action, actor_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := t.tx.Exec(ctx, query,
		event.ID, event.TenantID, event.EntityType, event.EntityID, event.Action, event.ActorID, metadata, event.CreatedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert audit event %s", event.ID)
	}
	return nil
}
