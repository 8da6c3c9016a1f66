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
	"github.com/SscSPs/bizledger/internal/platform/metrics"
	"github.com/SscSPs/bizledger/internal/utils/hashing"
	"github.com/google/uuid"
)

// postingKernel implements PostingKernel. The posting run row is the per-set lock: whoever
// inserts it owns the attempt, everybody else reads its outcome.
type postingKernel struct {
	BaseService
	setRepo    portsrepo.TransactionSetReader
	intentRepo portsrepo.PostingIntentRepository
	runRepo    portsrepo.PostingRunRepository
	gate       portssvc.ApprovalGate
	uow        portsrepo.UnitOfWork
}

// NewPostingKernel creates the posting kernel.
func NewPostingKernel(
	setRepo portsrepo.TransactionSetReader,
	intentRepo portsrepo.PostingIntentRepository,
	runRepo portsrepo.PostingRunRepository,
	gate portssvc.ApprovalGate,
	uow portsrepo.UnitOfWork,
	opts ...ServiceOption,
) portssvc.PostingKernel {
	return &postingKernel{
		BaseService: newBaseService(opts...),
		setRepo:     setRepo,
		intentRepo:  intentRepo,
		runRepo:     runRepo,
		gate:        gate,
		uow:         uow,
	}
}

var _ portssvc.PostingKernel = (*postingKernel)(nil)

func (k *postingKernel) Post(ctx context.Context, tenantID, setID, actorID string) (string, error) {
	start := time.Now()
	entryID, outcome, err := k.post(ctx, tenantID, setID, actorID)
	k.Metrics().ObservePost(outcome, time.Since(start))
	return entryID, err
}

func (k *postingKernel) post(ctx context.Context, tenantID, setID, actorID string) (string, string, error) {
	logger := k.GetLogger(ctx).With(slog.String("set_id", setID), slog.String("tenant_id", tenantID))

	set, err := k.setRepo.FindTransactionSetByID(ctx, tenantID, setID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", metrics.OutcomeRejected, apperrors.NewPostingError(apperrors.KindNotFound, setID, "transaction set not found").WithCause(err)
		}
		return "", metrics.OutcomeFailed, err
	}

	if set.Status == domain.SetPosted {
		if entryID, ok := k.succeededEntry(ctx, tenantID, setID); ok {
			logger.Info("Set already posted, returning existing entry", slog.String("journal_entry_id", entryID))
			return entryID, metrics.OutcomeIdempotent, nil
		}
	}
	if set.Status != domain.SetReview {
		return "", metrics.OutcomeRejected, apperrors.NewPostingError(apperrors.KindInvalidState, setID, "only a set in review can be posted").
			WithState(string(domain.SetReview), string(set.Status))
	}

	intent, err := k.loadFreshIntent(ctx, set)
	if err != nil {
		return "", metrics.OutcomeRejected, err
	}

	decision, err := k.gate.Check(ctx, tenantID, domain.EntityTypeTransactionSet, setID)
	if err != nil {
		return "", metrics.OutcomeFailed, err
	}
	switch decision {
	case domain.GateBlockedPending:
		return "", metrics.OutcomeRejected, apperrors.NewPostingError(apperrors.KindApprovalRequired, setID, "approval is pending")
	case domain.GateBlockedRejected:
		return "", metrics.OutcomeRejected, apperrors.NewPostingError(apperrors.KindApprovalRejected, setID, "approval was rejected")
	}

	run := domain.PostingRun{
		ID:               uuid.NewString(),
		TenantID:         tenantID,
		TransactionSetID: setID,
		Status:           domain.RunStarted,
		StartedByActorID: actorID,
		StartedAt:        k.Now(),
	}
	if err := k.runRepo.CreatePostingRun(ctx, run); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			logger.Error("Failed to open posting run", slog.String("error", err.Error()))
			return "", metrics.OutcomeFailed, err
		}
		return k.existingRun(ctx, logger, tenantID, setID)
	}
	logger = logger.With(slog.String("run_id", run.ID))

	entryID := uuid.NewString()
	err = k.uow.RunInTx(ctx, func(ctx context.Context, tx portsrepo.PostingTx) error {
		return k.postInTx(ctx, tx, set, intent, run, entryID, actorID)
	})
	if err != nil {
		k.recordFailure(ctx, logger, run.ID, err)
		return "", metrics.OutcomeFailed, err
	}

	logger.Info("Transaction set posted", slog.String("journal_entry_id", entryID))
	return entryID, metrics.OutcomePosted, nil
}

// loadFreshIntent returns the latest intent if it still matches the set version and contents.
func (k *postingKernel) loadFreshIntent(ctx context.Context, set *domain.TransactionSet) (*domain.PostingIntent, error) {
	intent, err := k.intentRepo.FindLatestPostingIntent(ctx, set.TenantID, set.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewPostingError(apperrors.KindIntentMissing, set.ID, "no posting intent has been computed")
		}
		return nil, err
	}
	if intent.SetVersion != set.Version {
		return nil, apperrors.NewPostingError(apperrors.KindIntentStale, set.ID, "set changed after the intent was computed").
			WithState(fmt.Sprintf("version %d", intent.SetVersion), fmt.Sprintf("version %d", set.Version))
	}

	bts, err := k.setRepo.ListBusinessTransactions(ctx, set.TenantID, set.ID)
	if err != nil {
		return nil, err
	}
	if hash := hashing.ContentHash(set.ID, bts); hash != intent.ContentHash {
		return nil, apperrors.NewPostingError(apperrors.KindIntentStale, set.ID, "set contents differ from the intent").
			WithState(intent.ContentHash, hash)
	}
	return intent, nil
}

func (k *postingKernel) succeededEntry(ctx context.Context, tenantID, setID string) (string, bool) {
	run, err := k.runRepo.FindPostingRunBySet(ctx, tenantID, setID)
	if err != nil || run.Status != domain.RunSucceeded || run.JournalEntryID == nil {
		return "", false
	}
	return *run.JournalEntryID, true
}

// existingRun maps the run that won the insert to the caller's outcome.
func (k *postingKernel) existingRun(ctx context.Context, logger *slog.Logger, tenantID, setID string) (string, string, error) {
	existing, err := k.runRepo.FindPostingRunBySet(ctx, tenantID, setID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// The run was cleared by an operator between our insert and this read.
			return "", metrics.OutcomeInProgress, apperrors.NewPostingError(apperrors.KindPostingInProgress, setID, "posting run changed concurrently")
		}
		return "", metrics.OutcomeFailed, err
	}

	switch existing.Status {
	case domain.RunSucceeded:
		entryID := ""
		if existing.JournalEntryID != nil {
			entryID = *existing.JournalEntryID
		}
		logger.Info("Posting run already succeeded", slog.String("run_id", existing.ID), slog.String("journal_entry_id", entryID))
		return entryID, metrics.OutcomeIdempotent, nil
	case domain.RunStarted:
		logger.Warn("Posting run in progress", slog.String("run_id", existing.ID))
		return "", metrics.OutcomeInProgress, apperrors.NewPostingError(apperrors.KindPostingInProgress, setID, "another posting attempt holds the run").
			WithState(string(domain.RunSucceeded), string(existing.Status))
	default:
		msg := "previous attempt failed; an operator must clear the run before retrying"
		pe := apperrors.NewPostingError(apperrors.KindPreviousAttemptFailed, setID, msg).
			WithState(string(domain.RunSucceeded), string(existing.Status))
		if existing.Error != nil {
			pe = pe.WithCause(errors.New(*existing.Error))
		}
		logger.Warn("Previous posting attempt failed", slog.String("run_id", existing.ID))
		return "", metrics.OutcomePrevFailed, pe
	}
}

func (k *postingKernel) postInTx(ctx context.Context, tx portsrepo.PostingTx, set *domain.TransactionSet, intent *domain.PostingIntent, run domain.PostingRun, entryID, actorID string) error {
	locked, err := tx.LockTransactionSet(ctx, set.TenantID, set.ID)
	if err != nil {
		return err
	}
	if locked.Status != domain.SetReview {
		return apperrors.NewPostingError(apperrors.KindInvalidState, set.ID, "set left review before posting").
			WithState(string(domain.SetReview), string(locked.Status))
	}
	if locked.Version != intent.SetVersion {
		return apperrors.NewPostingError(apperrors.KindIntentStale, set.ID, "set changed before posting").
			WithState(fmt.Sprintf("version %d", intent.SetVersion), fmt.Sprintf("version %d", locked.Version))
	}

	if err := domain.ValidateIntentLines(intent.Lines); err != nil {
		debits, credits := domain.Totals(intent.Lines)
		return apperrors.NewPostingError(apperrors.KindUnbalancedIntent, set.ID, "intent lines cannot be posted").
			WithState("debits == credits", fmt.Sprintf("debits %s, credits %s", debits.String(), credits.String())).
			WithCause(err)
	}

	ids := make([]string, 0, len(intent.Lines))
	for _, l := range intent.Lines {
		ids = append(ids, l.AccountID)
	}
	accounts, err := tx.FindAccountsByIDs(ctx, set.TenantID, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		acc, ok := accounts[id]
		if !ok || acc.TenantID != set.TenantID {
			return apperrors.NewPostingError(apperrors.KindIntentResolution, set.ID, fmt.Sprintf("account %s does not exist in tenant", id))
		}
		if !acc.IsActive {
			return apperrors.NewPostingError(apperrors.KindIntentResolution, set.ID, fmt.Sprintf("account %s is inactive", acc.Code)).
				WithCause(ErrAccountInactive)
		}
	}

	now := k.Now()
	postingDate := dateOnly(now)
	if locked.BusinessDate != nil {
		postingDate = dateOnly(*locked.BusinessDate)
	}
	memo := fmt.Sprintf("Transaction set %s", set.ID)
	setID := set.ID
	entry := domain.JournalEntry{
		ID:                     entryID,
		TenantID:               set.TenantID,
		PostingDate:            postingDate,
		EntryDate:              dateOnly(now),
		Memo:                   &memo,
		SourceTransactionSetID: &setID,
		PostedByActorID:        actorID,
		PostedAt:               now,
	}
	lines := make([]domain.JournalLine, len(intent.Lines))
	for i, l := range intent.Lines {
		lines[i] = domain.NewJournalLine(entryID, i+1, l.AccountID, l.Side, l.Amount, l.Description)
		lines[i].ID = uuid.NewString()
	}
	if err := domain.ValidateJournalLines(lines); err != nil {
		return apperrors.NewPostingError(apperrors.KindUnbalancedIntent, set.ID, "journal lines are invalid").WithCause(err)
	}

	if err := tx.InsertJournalEntry(ctx, entry, lines); err != nil {
		return err
	}
	if err := tx.MarkTransactionSetPosted(ctx, set.TenantID, set.ID, actorID, now); err != nil {
		return err
	}
	if err := tx.MarkPostingRunSucceeded(ctx, run.ID, entryID, now); err != nil {
		return err
	}
	return tx.InsertAuditEvent(ctx, domain.AuditEvent{
		ID:         uuid.NewString(),
		TenantID:   set.TenantID,
		EntityType: domain.AuditEntityJournalEntry,
		EntityID:   entryID,
		Action:     domain.AuditPosted,
		ActorID:    actorID,
		Metadata: map[string]string{
			"transaction_set_id": set.ID,
			"posting_run_id":     run.ID,
			"intent_id":          intent.ID,
		},
		CreatedAt: now,
	})
}

// recordFailure marks the run FAILED outside the rolled back unit. It uses a context that
// survives cancellation of the request so a timed out caller still leaves a FAILED run behind.
func (k *postingKernel) recordFailure(ctx context.Context, logger *slog.Logger, runID string, cause error) {
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := k.runRepo.MarkPostingRunFailed(failCtx, runID, cause.Error(), k.Now()); err != nil {
		logger.Error("Failed to record posting failure", slog.String("error", err.Error()), slog.String("cause", cause.Error()))
		return
	}
	logger.Warn("Posting failed, run marked FAILED", slog.String("cause", cause.Error()))
}
