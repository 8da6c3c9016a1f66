package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionSetColumns = `id, tenant_id, status, source, business_date, version, created_by_actor_id,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxTransactionSetRepository struct {
	BaseRepository
}

func newPgxTransactionSetRepository(pool *pgxpool.Pool) *PgxTransactionSetRepository {
	return &PgxTransactionSetRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var (
	_ portsrepo.TransactionSetRepositoryFacade = (*PgxTransactionSetRepository)(nil)
	_ portsrepo.PostingIntentRepository        = (*PgxTransactionSetRepository)(nil)
)

func scanTransactionSet(row pgx.Row) (domain.TransactionSet, error) {
	var set domain.TransactionSet
	err := row.Scan(
		&set.ID,
		&set.TenantID,
		&set.Status,
		&set.Source,
		&set.BusinessDate,
		&set.Version,
		&set.CreatedByActorID,
		&set.CreatedAt,
		&set.CreatedBy,
		&set.LastUpdatedAt,
		&set.LastUpdatedBy,
	)
	return set, err
}

// findTransactionSet reads a set of the tenant, row-locked when forUpdate is set and q is a transaction.
func findTransactionSet(ctx context.Context, q querier, tenantID, setID string, forUpdate bool) (*domain.TransactionSet, error) {
	query := `SELECT ` + transactionSetColumns + ` FROM transaction_sets WHERE tenant_id = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	set, err := scanTransactionSet(q.QueryRow(ctx, query, tenantID, setID))
	if err != nil {
		return nil, mapReadError(err, "find transaction set %s", setID)
	}
	return &set, nil
}

func (r *PgxTransactionSetRepository) FindTransactionSetByID(ctx context.Context, tenantID, setID string) (*domain.TransactionSet, error) {
	return findTransactionSet(ctx, r.Pool, tenantID, setID, false)
}

func (r *PgxTransactionSetRepository) SaveTransactionSet(ctx context.Context, set domain.TransactionSet) error {
	query := `
		INSERT INTO transaction_sets (` + transactionSetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		set.ID,
		set.TenantID,
		set.Status,
		set.Source,
		set.BusinessDate,
		set.Version,
		set.CreatedByActorID,
		set.CreatedAt,
		set.CreatedBy,
		set.LastUpdatedAt,
		set.LastUpdatedBy,
	)
	if err != nil {
		return mapWriteError(err, "save transaction set %s", set.ID)
	}
	return nil
}

// ListBusinessTransactions returns the set's business transactions in insertion order.
func (r *PgxTransactionSetRepository) ListBusinessTransactions(ctx context.Context, tenantID, setID string) ([]domain.BusinessTransaction, error) {
	if _, err := r.FindTransactionSetByID(ctx, tenantID, setID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, transaction_set_id, type, memo, lines, created_at
		FROM business_transactions
		WHERE tenant_id = $1 AND transaction_set_id = $2
		ORDER BY seq;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, setID)
	if err != nil {
		return nil, fmt.Errorf("failed to list business transactions of set %s: %w", setID, err)
	}
	defer rows.Close()

	bts := make([]domain.BusinessTransaction, 0)
	for rows.Next() {
		var bt domain.BusinessTransaction
		if err := rows.Scan(&bt.ID, &bt.TransactionSetID, &bt.Type, &bt.Memo, &bt.Lines, &bt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan business transaction row: %w", err)
		}
		bts = append(bts, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating business transaction rows: %w", err)
	}
	return bts, nil
}

// withDraftSet runs fn in a transaction holding the set row lock, after checking the set is DRAFT.
// The set version is bumped when fn succeeds.
func (r *PgxTransactionSetRepository) withDraftSet(ctx context.Context, tenantID, setID, actorID string, now time.Time, fn func(tx pgx.Tx) error) (int64, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	set, err := findTransactionSet(ctx, tx, tenantID, setID, true)
	if err != nil {
		return 0, err
	}
	if !set.IsEditable() {
		return 0, apperrors.ErrConflict
	}
	if err := fn(tx); err != nil {
		return 0, err
	}

	var version int64
	query := `
		UPDATE transaction_sets SET version = version + 1, last_updated_at = $3, last_updated_by = $4
		WHERE tenant_id = $1 AND id = $2
		RETURNING version;
	`
	if err := tx.QueryRow(ctx, query, tenantID, setID, now, actorID).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to bump version of set %s: %w", setID, err)
	}
	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return version, nil
}

func (r *PgxTransactionSetRepository) AddBusinessTransaction(ctx context.Context, tenantID string, bt domain.BusinessTransaction, actorID string, now time.Time) (int64, error) {
	return r.withDraftSet(ctx, tenantID, bt.TransactionSetID, actorID, now, func(tx pgx.Tx) error {
		query := `
			INSERT INTO business_transactions (id, tenant_id, transaction_set_id, type, memo, lines, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7);
		`
		if _, err := tx.Exec(ctx, query, bt.ID, tenantID, bt.TransactionSetID, bt.Type, bt.Memo, bt.Lines, bt.CreatedAt); err != nil {
			return mapWriteError(err, "insert business transaction %s", bt.ID)
		}
		return nil
	})
}

func (r *PgxTransactionSetRepository) RemoveBusinessTransaction(ctx context.Context, tenantID, setID, btID, actorID string, now time.Time) (int64, error) {
	return r.withDraftSet(ctx, tenantID, setID, actorID, now, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM business_transactions WHERE tenant_id = $1 AND transaction_set_id = $2 AND id = $3;`, tenantID, setID, btID)
		if err != nil {
			return fmt.Errorf("failed to delete business transaction %s: %w", btID, err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// UpdateTransactionSetStatus moves the set from one status to another. ErrConflict when the set is not in from.
func (r *PgxTransactionSetRepository) UpdateTransactionSetStatus(ctx context.Context, tenantID, setID string, from, to domain.TransactionSetStatus, actorID string, now time.Time) error {
	return updateSetStatus(ctx, r.Pool, tenantID, setID, from, to, actorID, now)
}

func updateSetStatus(ctx context.Context, q querier, tenantID, setID string, from, to domain.TransactionSetStatus, actorID string, now time.Time) error {
	query := `
		UPDATE transaction_sets SET status = $4, last_updated_at = $5, last_updated_by = $6
		WHERE tenant_id = $1 AND id = $2 AND status = $3;
	`
	tag, err := q.Exec(ctx, query, tenantID, setID, from, to, now, actorID)
	if err != nil {
		return fmt.Errorf("failed to update status of set %s: %w", setID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := findTransactionSet(ctx, q, tenantID, setID, false); err != nil {
			return err
		}
		return apperrors.ErrConflict
	}
	return nil
}

func (r *PgxTransactionSetRepository) SavePostingIntent(ctx context.Context, tenantID string, intent domain.PostingIntent) error {
	query := `
		INSERT INTO posting_intents (id, tenant_id, transaction_set_id, set_version, content_hash, lines, created_by_actor_id, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8
		WHERE EXISTS (SELECT 1 FROM transaction_sets WHERE tenant_id = $2 AND id = $3);
	`
	tag, err := r.Pool.Exec(ctx, query,
		intent.ID,
		tenantID,
		intent.TransactionSetID,
		intent.SetVersion,
		intent.ContentHash,
		intent.Lines,
		intent.CreatedByActorID,
		intent.CreatedAt,
	)
	if err != nil {
		return mapWriteError(err, "save posting intent %s", intent.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindLatestPostingIntent returns the most recently stored intent of the set.
func (r *PgxTransactionSetRepository) FindLatestPostingIntent(ctx context.Context, tenantID, setID string) (*domain.PostingIntent, error) {
	query := `
		SELECT id, transaction_set_id, set_version, content_hash, lines, created_by_actor_id, created_at
		FROM posting_intents
		WHERE tenant_id = $1 AND transaction_set_id = $2
		ORDER BY seq DESC
		LIMIT 1;
	`
	var intent domain.PostingIntent
	err := r.Pool.QueryRow(ctx, query, tenantID, setID).Scan(
		&intent.ID,
		&intent.TransactionSetID,
		&intent.SetVersion,
		&intent.ContentHash,
		&intent.Lines,
		&intent.CreatedByActorID,
		&intent.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, err := r.FindTransactionSetByID(ctx, tenantID, setID); err != nil {
				return nil, err
			}
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find latest intent of set %s: %w", setID, err)
	}
	return &intent, nil
}
