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

const approvalColumns = `id, tenant_id, entity_type, entity_id, required_role_name, status, decided_by_user_id, decided_at,
	created_by_actor_id, created_at`

type PgxApprovalRepository struct {
	BaseRepository
}

func newPgxApprovalRepository(pool *pgxpool.Pool) *PgxApprovalRepository {
	return &PgxApprovalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ApprovalRepository = (*PgxApprovalRepository)(nil)

func scanApproval(row pgx.Row) (*domain.Approval, error) {
	var a domain.Approval
	err := row.Scan(
		&a.ID,
		&a.TenantID,
		&a.EntityType,
		&a.EntityID,
		&a.RequiredRoleName,
		&a.Status,
		&a.DecidedByUserID,
		&a.DecidedAt,
		&a.CreatedByActorID,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PgxApprovalRepository) SaveApproval(ctx context.Context, a domain.Approval) error {
	query := `INSERT INTO approvals (` + approvalColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`
	_, err := r.Pool.Exec(ctx, query,
		a.ID, a.TenantID, a.EntityType, a.EntityID, a.RequiredRoleName, a.Status,
		a.DecidedByUserID, a.DecidedAt, a.CreatedByActorID, a.CreatedAt,
	)
	if err != nil {
		return mapWriteError(err, "save approval %s", a.ID)
	}
	return nil
}

func (r *PgxApprovalRepository) FindApprovalByID(ctx context.Context, tenantID, approvalID string) (*domain.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE tenant_id = $1 AND id = $2;`
	a, err := scanApproval(r.Pool.QueryRow(ctx, query, tenantID, approvalID))
	if err != nil {
		return nil, mapReadError(err, "find approval %s", approvalID)
	}
	return a, nil
}

// FindLatestApproval returns the most recently requested approval of the entity.
func (r *PgxApprovalRepository) FindLatestApproval(ctx context.Context, tenantID, entityType, entityID string) (*domain.Approval, error) {
	query := `
		SELECT ` + approvalColumns + ` FROM approvals
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY seq DESC
		LIMIT 1;
	`
	a, err := scanApproval(r.Pool.QueryRow(ctx, query, tenantID, entityType, entityID))
	if err != nil {
		return nil, mapReadError(err, "find latest approval of %s %s", entityType, entityID)
	}
	return a, nil
}

// DecideApproval records a decision on a PENDING approval; ErrConflict when it was already decided.
func (r *PgxApprovalRepository) DecideApproval(ctx context.Context, tenantID, approvalID string, status domain.ApprovalStatus, deciderID string, decidedAt time.Time) error {
	query := `
		UPDATE approvals SET status = $3, decided_by_user_id = $4, decided_at = $5
		WHERE tenant_id = $1 AND id = $2 AND status = 'PENDING';
	`
	tag, err := r.Pool.Exec(ctx, query, tenantID, approvalID, status, deciderID, decidedAt)
	if err != nil {
		return fmt.Errorf("failed to decide approval %s: %w", approvalID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindApprovalByID(ctx, tenantID, approvalID); err != nil {
			return err
		}
		return apperrors.ErrConflict
	}
	return nil
}
