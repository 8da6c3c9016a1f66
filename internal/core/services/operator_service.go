package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/platform/metrics"
	"github.com/google/uuid"
)

type operatorService struct {
	BaseService
	runRepo portsrepo.PostingRunRepository
	uow     portsrepo.UnitOfWork
}

// NewOperatorService creates the service behind the operator recovery actions.
func NewOperatorService(runRepo portsrepo.PostingRunRepository, uow portsrepo.UnitOfWork, opts ...ServiceOption) portssvc.OperatorSvc {
	return &operatorService{
		BaseService: newBaseService(opts...),
		runRepo:     runRepo,
		uow:         uow,
	}
}

var _ portssvc.OperatorSvc = (*operatorService)(nil)

func (s *operatorService) RetryFailedRun(ctx context.Context, tenantID, setID, actorID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}

	run, err := s.runRepo.FindPostingRunBySet(ctx, tenantID, setID)
	if err != nil {
		return err
	}
	if run.Status != domain.RunFailed {
		return fmt.Errorf("%w (run %s is %s)", ErrRunNotFailed, run.ID, run.Status)
	}

	metadata := map[string]string{
		"transaction_set_id": setID,
		"reason":             reason,
	}
	if run.Error != nil {
		metadata["previous_error"] = *run.Error
	}

	err = s.uow.RunInTx(ctx, func(ctx context.Context, tx portsrepo.PostingTx) error {
		if err := tx.DeleteFailedPostingRun(ctx, run.ID); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return fmt.Errorf("%w (run %s)", ErrRunNotFailed, run.ID)
			}
			return err
		}
		return tx.InsertAuditEvent(ctx, domain.AuditEvent{
			ID:         uuid.NewString(),
			TenantID:   tenantID,
			EntityType: domain.AuditEntityPostingRun,
			EntityID:   run.ID,
			Action:     domain.AuditRetryCleared,
			ActorID:    actorID,
			Metadata:   metadata,
			CreatedAt:  s.Now(),
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to clear posting run", slog.String("run_id", run.ID))
		return err
	}

	s.Metrics().ObserveOperator(metrics.OutcomeRetryCleared)
	s.LogInfo(ctx, "Failed posting run cleared for retry",
		slog.String("run_id", run.ID), slog.String("set_id", setID), slog.String("actor_id", actorID))
	return nil
}

func (s *operatorService) SweepStuckRuns(ctx context.Context, olderThan time.Duration, actorID string) ([]domain.PostingRun, error) {
	if olderThan <= 0 {
		return nil, fmt.Errorf("%w: stuck timeout must be positive", apperrors.ErrValidation)
	}

	now := s.Now()
	stuck, err := s.runRepo.ListStuckPostingRuns(ctx, now.Add(-olderThan))
	if err != nil {
		s.LogError(ctx, err, "Failed to list stuck posting runs")
		return nil, err
	}

	msg := fmt.Sprintf("stuck: exceeded %s", olderThan)
	swept := make([]domain.PostingRun, 0, len(stuck))
	for _, run := range stuck {
		err := s.uow.RunInTx(ctx, func(ctx context.Context, tx portsrepo.PostingTx) error {
			if err := tx.MarkPostingRunFailed(ctx, run.ID, msg, now); err != nil {
				return err
			}
			return tx.InsertAuditEvent(ctx, domain.AuditEvent{
				ID:         uuid.NewString(),
				TenantID:   run.TenantID,
				EntityType: domain.AuditEntityPostingRun,
				EntityID:   run.ID,
				Action:     domain.AuditMarkedStuck,
				ActorID:    actorID,
				Metadata: map[string]string{
					"transaction_set_id": run.TransactionSetID,
					"started_at":         run.StartedAt.Format(time.RFC3339),
				},
				CreatedAt: now,
			})
		})
		if err != nil {
			// The run finished between the listing and the update.
			if errors.Is(err, apperrors.ErrConflict) {
				s.LogInfo(ctx, "Stuck run already finished", slog.String("run_id", run.ID))
				continue
			}
			s.LogError(ctx, err, "Failed to mark run as stuck", slog.String("run_id", run.ID))
			return swept, err
		}

		run.Status = domain.RunFailed
		run.FinishedAt = &now
		run.Error = &msg
		swept = append(swept, run)
		s.Metrics().ObserveOperator(metrics.OutcomeMarkedStuck)
		s.LogInfo(ctx, "Posting run marked stuck", slog.String("run_id", run.ID), slog.String("tenant_id", run.TenantID))
	}
	return swept, nil
}
