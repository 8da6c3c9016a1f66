package services

import (
	"context"
	"errors"
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

type reversalService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryFacade
	uow         portsrepo.UnitOfWork
}

// NewReversalService creates the reversal engine.
func NewReversalService(journalRepo portsrepo.JournalRepositoryFacade, uow portsrepo.UnitOfWork, opts ...ServiceOption) portssvc.ReversalEngine {
	return &reversalService{
		BaseService: newBaseService(opts...),
		journalRepo: journalRepo,
		uow:         uow,
	}
}

var _ portssvc.ReversalEngine = (*reversalService)(nil)

func (s *reversalService) Reverse(ctx context.Context, tenantID, entryID, reason, actorID string) (string, error) {
	return s.observe(s.reverse(ctx, tenantID, entryID, reason, actorID, nil))
}

func (s *reversalService) ReverseOn(ctx context.Context, tenantID, entryID, reason, actorID string, postingDate time.Time) (string, error) {
	return s.observe(s.reverse(ctx, tenantID, entryID, reason, actorID, &postingDate))
}

func (s *reversalService) observe(reversalID string, err error) (string, error) {
	switch {
	case err == nil:
		s.Metrics().ObserveReversal(metrics.OutcomeReversed)
	case errors.Is(err, apperrors.ErrAlreadyReversed):
		s.Metrics().ObserveReversal(metrics.OutcomeAlreadyRev)
	default:
		s.Metrics().ObserveReversal(metrics.OutcomeFailed)
	}
	return reversalID, err
}

// reverse dates the reversal on postingDate, or on the later of today and the original's date when nil.
func (s *reversalService) reverse(ctx context.Context, tenantID, entryID, reason, actorID string, postingDate *time.Time) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", ErrReasonRequired
	}

	original, err := s.journalRepo.FindJournalEntryByID(ctx, tenantID, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.NewPostingError(apperrors.KindNotFound, entryID, "journal entry not found").WithCause(err)
		}
		s.LogError(ctx, err, "Failed to find journal entry", slog.String("journal_entry_id", entryID))
		return "", err
	}
	lines, err := s.journalRepo.FindJournalLines(ctx, entryID)
	if err != nil {
		s.LogError(ctx, err, "Failed to find journal lines", slog.String("journal_entry_id", entryID))
		return "", err
	}

	if link, err := s.journalRepo.FindReversalLinkByOriginal(ctx, entryID); err == nil {
		return "", alreadyReversed(entryID, link)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return "", err
	}

	now := s.Now()
	reversalDate := dateOnly(now)
	if postingDate != nil {
		reversalDate = dateOnly(*postingDate)
		if reversalDate.Before(dateOnly(original.PostingDate)) {
			return "", ErrReversalBackdated
		}
	} else if reversalDate.Before(dateOnly(original.PostingDate)) {
		reversalDate = dateOnly(original.PostingDate)
	}

	reversalID := uuid.NewString()
	memo := domain.ReversalMemo(original.Memo)
	entry := domain.JournalEntry{
		ID:              reversalID,
		TenantID:        tenantID,
		PostingDate:     reversalDate,
		EntryDate:       dateOnly(now),
		Memo:            &memo,
		PostedByActorID: actorID,
		PostedAt:        now,
	}
	mirrored := domain.MirrorLines(reversalID, lines)
	for i := range mirrored {
		mirrored[i].ID = uuid.NewString()
	}
	link := domain.ReversalLink{
		ID:                     uuid.NewString(),
		OriginalJournalEntryID: entryID,
		ReversalJournalEntryID: reversalID,
		Reason:                 reason,
		CreatedByActorID:       actorID,
		CreatedAt:              now,
	}

	err = s.uow.RunInTx(ctx, func(ctx context.Context, tx portsrepo.PostingTx) error {
		if existing, err := tx.FindReversalLinkByOriginal(ctx, entryID); err == nil {
			return alreadyReversed(entryID, existing)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		if err := tx.InsertJournalEntry(ctx, entry, mirrored); err != nil {
			return err
		}
		if err := tx.InsertReversalLink(ctx, link); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				return apperrors.NewPostingError(apperrors.KindAlreadyReversed, entryID, "journal entry was reversed concurrently").WithCause(err)
			}
			return err
		}
		return tx.InsertAuditEvent(ctx, domain.AuditEvent{
			ID:         uuid.NewString(),
			TenantID:   tenantID,
			EntityType: domain.AuditEntityJournalEntry,
			EntityID:   reversalID,
			Action:     domain.AuditReversed,
			ActorID:    actorID,
			Metadata: map[string]string{
				"original_journal_entry_id": entryID,
				"reason":                    reason,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyReversed) {
			s.LogWarn(ctx, err, "Reversal refused", slog.String("journal_entry_id", entryID))
		} else {
			s.LogError(ctx, err, "Failed to reverse journal entry", slog.String("journal_entry_id", entryID))
		}
		return "", err
	}

	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("journal_entry_id", entryID), slog.String("reversal_journal_entry_id", reversalID))
	return reversalID, nil
}

func alreadyReversed(entryID string, link *domain.ReversalLink) error {
	return apperrors.NewPostingError(apperrors.KindAlreadyReversed, entryID, "journal entry already has a reversal").
		WithState("not reversed", "reversed by "+link.ReversalJournalEntryID)
}
