package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/utils/hashing"
	"github.com/google/uuid"
)

type intentService struct {
	BaseService
	setRepo    portsrepo.TransactionSetReader
	intentRepo portsrepo.PostingIntentRepository
	chart      portssvc.ChartReaderSvc
	rules      domain.PostingRules
}

// NewIntentService creates the service that resolves and stores posting intents.
func NewIntentService(setRepo portsrepo.TransactionSetReader, intentRepo portsrepo.PostingIntentRepository, chart portssvc.ChartReaderSvc, rules domain.PostingRules, opts ...ServiceOption) portssvc.IntentSvc {
	return &intentService{
		BaseService: newBaseService(opts...),
		setRepo:     setRepo,
		intentRepo:  intentRepo,
		chart:       chart,
		rules:       rules,
	}
}

var _ portssvc.IntentSvc = (*intentService)(nil)

// loadEditable returns a set that still accepts intents (DRAFT or REVIEW) with its business transactions.
func (s *intentService) loadEditable(ctx context.Context, tenantID, setID string) (*domain.TransactionSet, []domain.BusinessTransaction, error) {
	set, err := s.setRepo.FindTransactionSetByID(ctx, tenantID, setID)
	if err != nil {
		return nil, nil, err
	}
	if set.Status == domain.SetPosted {
		return nil, nil, apperrors.NewPostingError(apperrors.KindInvalidState, setID, "set is already posted").
			WithState(string(domain.SetReview), string(set.Status))
	}
	bts, err := s.setRepo.ListBusinessTransactions(ctx, tenantID, setID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list business transactions", slog.String("set_id", setID))
		return nil, nil, err
	}
	return set, bts, nil
}

func (s *intentService) ResolveIntent(ctx context.Context, tenantID, setID, actorID string) (*domain.PostingIntent, error) {
	set, bts, err := s.loadEditable(ctx, tenantID, setID)
	if err != nil {
		return nil, err
	}

	chart, err := s.chart.LoadChart(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	asOf := dateOnly(s.Now())
	if set.BusinessDate != nil {
		asOf = dateOnly(*set.BusinessDate)
	}

	lines, err := ResolveIntentLines(setID, bts, chart, s.rules, asOf)
	if err != nil {
		s.LogWarn(ctx, err, "Intent resolution failed", slog.String("set_id", setID))
		return nil, err
	}

	return s.save(ctx, tenantID, set, bts, lines, actorID)
}

func (s *intentService) RecordIntent(ctx context.Context, tenantID, setID string, lines []domain.IntentLine, actorID string) (*domain.PostingIntent, error) {
	if len(lines) == 0 {
		return nil, apperrors.NewPostingError(apperrors.KindIntentResolution, setID, "intent has no lines").WithCause(domain.ErrIntentEmpty)
	}
	for _, l := range lines {
		switch {
		case l.AccountID == "":
			return nil, apperrors.NewPostingError(apperrors.KindIntentResolution, setID, "intent line without account").WithCause(domain.ErrIntentLineAccount)
		case !l.Side.IsValid():
			return nil, apperrors.NewPostingError(apperrors.KindIntentResolution, setID, "intent line with invalid side").WithCause(domain.ErrIntentLineSide)
		case !l.Amount.IsPositive():
			return nil, apperrors.NewPostingError(apperrors.KindIntentResolution, setID, "intent line with non-positive amount").WithCause(domain.ErrIntentLineAmount)
		}
	}

	set, bts, err := s.loadEditable(ctx, tenantID, setID)
	if err != nil {
		return nil, err
	}
	// Once submitted the facts are frozen and only ResolveIntent may derive an intent from them.
	if set.Status != domain.SetDraft {
		return nil, apperrors.NewPostingError(apperrors.KindInvalidState, setID, "explicit intents can only be recorded on a draft set").
			WithState(string(domain.SetDraft), string(set.Status))
	}
	return s.save(ctx, tenantID, set, bts, lines, actorID)
}

func (s *intentService) save(ctx context.Context, tenantID string, set *domain.TransactionSet, bts []domain.BusinessTransaction, lines []domain.IntentLine, actorID string) (*domain.PostingIntent, error) {
	intent := domain.PostingIntent{
		ID:               uuid.NewString(),
		TransactionSetID: set.ID,
		SetVersion:       set.Version,
		ContentHash:      hashing.ContentHash(set.ID, bts),
		Lines:            append([]domain.IntentLine(nil), lines...),
		CreatedByActorID: actorID,
		CreatedAt:        s.Now(),
	}
	if err := s.intentRepo.SavePostingIntent(ctx, tenantID, intent); err != nil {
		s.LogError(ctx, err, "Failed to save posting intent", slog.String("set_id", set.ID))
		return nil, err
	}

	s.LogInfo(ctx, "Posting intent stored",
		slog.String("set_id", set.ID), slog.String("intent_id", intent.ID),
		slog.Int64("set_version", intent.SetVersion), slog.Int("lines", len(intent.Lines)))
	return &intent, nil
}

func (s *intentService) GetLatestIntent(ctx context.Context, tenantID, setID string) (*domain.PostingIntent, error) {
	if _, err := s.setRepo.FindTransactionSetByID(ctx, tenantID, setID); err != nil {
		return nil, err
	}
	intent, err := s.intentRepo.FindLatestPostingIntent(ctx, tenantID, setID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find posting intent", slog.String("set_id", setID))
		}
		return nil, err
	}
	return intent, nil
}
