package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/dto"
	"github.com/google/uuid"
)

type transactionSetService struct {
	BaseService
	setRepo portsrepo.TransactionSetRepositoryFacade
	runRepo portsrepo.PostingRunRepository
}

// NewTransactionSetService creates the intake-side service of transaction sets.
func NewTransactionSetService(setRepo portsrepo.TransactionSetRepositoryFacade, runRepo portsrepo.PostingRunRepository, opts ...ServiceOption) portssvc.TransactionSetSvcFacade {
	return &transactionSetService{
		BaseService: newBaseService(opts...),
		setRepo:     setRepo,
		runRepo:     runRepo,
	}
}

var _ portssvc.TransactionSetSvcFacade = (*transactionSetService)(nil)

func (s *transactionSetService) CreateTransactionSet(ctx context.Context, tenantID string, req dto.CreateTransactionSetRequest, actorID string) (*domain.TransactionSet, error) {
	source := req.Source
	if source == "" {
		source = domain.SourceAPI
	}

	var businessDate *time.Time
	if req.BusinessDate != nil {
		d, err := time.Parse(dto.DateLayout, *req.BusinessDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid business date %q", apperrors.ErrValidation, *req.BusinessDate)
		}
		businessDate = &d
	}

	now := s.Now()
	set := domain.TransactionSet{
		ID:               uuid.NewString(),
		TenantID:         tenantID,
		Status:           domain.SetDraft,
		Source:           source,
		BusinessDate:     businessDate,
		Version:          1,
		CreatedByActorID: actorID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if err := s.setRepo.SaveTransactionSet(ctx, set); err != nil {
		s.LogError(ctx, err, "Failed to save transaction set")
		return nil, err
	}

	s.LogInfo(ctx, "Transaction set created", slog.String("set_id", set.ID), slog.String("source", string(source)))
	return &set, nil
}

func (s *transactionSetService) GetTransactionSet(ctx context.Context, tenantID, setID string) (*domain.TransactionSet, []domain.BusinessTransaction, error) {
	set, err := s.setRepo.FindTransactionSetByID(ctx, tenantID, setID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find transaction set", slog.String("set_id", setID))
		}
		return nil, nil, err
	}
	bts, err := s.setRepo.ListBusinessTransactions(ctx, tenantID, setID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list business transactions", slog.String("set_id", setID))
		return nil, nil, err
	}
	return set, bts, nil
}

func (s *transactionSetService) GetPostingRun(ctx context.Context, tenantID, setID string) (*domain.PostingRun, error) {
	run, err := s.runRepo.FindPostingRunBySet(ctx, tenantID, setID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to find posting run", slog.String("set_id", setID))
		return nil, err
	}
	return run, nil
}

func (s *transactionSetService) AddBusinessTransaction(ctx context.Context, tenantID, setID string, req dto.AddBusinessTransactionRequest, actorID string) (*domain.BusinessTransaction, error) {
	if req.Type == "" {
		return nil, fmt.Errorf("%w: business transaction type is required", apperrors.ErrValidation)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: business transaction needs at least one line", apperrors.ErrValidation)
	}

	set, err := s.setRepo.FindTransactionSetByID(ctx, tenantID, setID)
	if err != nil {
		return nil, err
	}
	if !set.IsEditable() {
		return nil, apperrors.NewPostingError(apperrors.KindInvalidState, setID, "business transactions can only change on a draft set").
			WithState(string(domain.SetDraft), string(set.Status))
	}

	now := s.Now()
	bt := domain.BusinessTransaction{
		ID:               uuid.NewString(),
		TransactionSetID: setID,
		Type:             req.Type,
		Memo:             req.Memo,
		Lines:            make([]domain.BusinessTransactionLine, len(req.Lines)),
		CreatedAt:        now,
	}
	for i, l := range req.Lines {
		if l.TaxAmount.IsNegative() {
			return nil, fmt.Errorf("%w: line %d tax amount cannot be negative", apperrors.ErrValidation, i+1)
		}
		bt.Lines[i] = domain.BusinessTransactionLine{
			LineNo:      i + 1,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Amount:      l.Amount,
			TaxCode:     l.TaxCode,
			TaxAmount:   l.TaxAmount,
		}
	}

	version, err := s.setRepo.AddBusinessTransaction(ctx, tenantID, bt, actorID, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.NewPostingError(apperrors.KindInvalidState, setID, "set left draft while adding").WithCause(err)
		}
		s.LogError(ctx, err, "Failed to add business transaction", slog.String("set_id", setID))
		return nil, err
	}

	s.LogInfo(ctx, "Business transaction added", slog.String("set_id", setID), slog.String("bt_id", bt.ID), slog.Int64("version", version))
	return &bt, nil
}

func (s *transactionSetService) RemoveBusinessTransaction(ctx context.Context, tenantID, setID, btID, actorID string) error {
	set, err := s.setRepo.FindTransactionSetByID(ctx, tenantID, setID)
	if err != nil {
		return err
	}
	if !set.IsEditable() {
		return apperrors.NewPostingError(apperrors.KindInvalidState, setID, "business transactions can only change on a draft set").
			WithState(string(domain.SetDraft), string(set.Status))
	}

	version, err := s.setRepo.RemoveBusinessTransaction(ctx, tenantID, setID, btID, actorID, s.Now())
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return apperrors.NewPostingError(apperrors.KindInvalidState, setID, "set left draft while removing").WithCause(err)
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to remove business transaction", slog.String("set_id", setID), slog.String("bt_id", btID))
		}
		return err
	}

	s.LogInfo(ctx, "Business transaction removed", slog.String("set_id", setID), slog.String("bt_id", btID), slog.Int64("version", version))
	return nil
}

func (s *transactionSetService) SubmitTransactionSet(ctx context.Context, tenantID, setID, actorID string) (*domain.TransactionSet, error) {
	set, bts, err := s.GetTransactionSet(ctx, tenantID, setID)
	if err != nil {
		return nil, err
	}
	if set.Status != domain.SetDraft {
		return nil, apperrors.NewPostingError(apperrors.KindInvalidState, setID, "only a draft set can be submitted").
			WithState(string(domain.SetDraft), string(set.Status))
	}
	if len(bts) == 0 {
		return nil, ErrSetEmpty
	}

	return s.transition(ctx, set, domain.SetReview, actorID)
}

func (s *transactionSetService) ReopenTransactionSet(ctx context.Context, tenantID, setID, actorID string) (*domain.TransactionSet, error) {
	set, err := s.setRepo.FindTransactionSetByID(ctx, tenantID, setID)
	if err != nil {
		return nil, err
	}
	if set.Status != domain.SetReview {
		return nil, apperrors.NewPostingError(apperrors.KindInvalidState, setID, "only a set in review can be reopened").
			WithState(string(domain.SetReview), string(set.Status))
	}

	run, err := s.runRepo.FindPostingRunBySet(ctx, tenantID, setID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
	case err != nil:
		s.LogError(ctx, err, "Failed to find posting run", slog.String("set_id", setID))
		return nil, err
	case run.Status == domain.RunStarted:
		return nil, apperrors.NewPostingError(apperrors.KindPostingInProgress, setID, "a posting run is in progress")
	case run.Status == domain.RunSucceeded:
		return nil, apperrors.NewPostingError(apperrors.KindInvalidState, setID, "set was already posted").
			WithState(string(domain.SetReview), string(domain.SetPosted))
	}

	return s.transition(ctx, set, domain.SetDraft, actorID)
}

func (s *transactionSetService) transition(ctx context.Context, set *domain.TransactionSet, to domain.TransactionSetStatus, actorID string) (*domain.TransactionSet, error) {
	now := s.Now()
	if err := s.setRepo.UpdateTransactionSetStatus(ctx, set.TenantID, set.ID, set.Status, to, actorID, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.NewPostingError(apperrors.KindInvalidState, set.ID, "set status changed concurrently").WithCause(err)
		}
		s.LogError(ctx, err, "Failed to update transaction set status", slog.String("set_id", set.ID))
		return nil, err
	}

	s.LogInfo(ctx, "Transaction set status changed",
		slog.String("set_id", set.ID), slog.String("from", string(set.Status)), slog.String("to", string(to)))

	updated := *set
	updated.Status = to
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = actorID
	return &updated, nil
}
