package services_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/bizledger/internal/adapters/database/memory"
	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/core/services"
	"github.com/SscSPs/bizledger/internal/dto"
	"github.com/SscSPs/bizledger/internal/platform/config"
	"github.com/SscSPs/bizledger/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tenantID = "tenant-1"
	actorID  = "user-1"
)

var businessDay = "2024-03-01"

type ledgerFixture struct {
	store    *memory.Store
	svc      *portssvc.ServiceContainer
	rec      *metrics.Kernel
	accounts map[string]string // code -> id
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := memory.NewStore()
	rec := metrics.NewKernel(prometheus.NewRegistry())
	cfg := &config.Config{ChartCacheTTL: time.Minute, PostingRunStuckAt: 15 * time.Minute}

	f := &ledgerFixture{
		store:    store,
		svc:      services.NewServiceContainer(cfg, store.Provider(), domain.DefaultPostingRules(), rec),
		rec:      rec,
		accounts: make(map[string]string),
	}

	chart := []struct {
		code, name string
		typ        domain.AccountType
	}{
		{"1000", "Cash", domain.Asset},
		{"1100", "Accounts Receivable", domain.Asset},
		{"1200", "VAT Receivable", domain.Asset},
		{"2000", "Accounts Payable", domain.Liability},
		{"2100", "VAT Payable", domain.Liability},
		{"3000", "Owner Equity", domain.Equity},
		{"4000", "Sales Revenue", domain.Income},
		{"5000", "Purchases", domain.Expense},
	}
	for _, a := range chart {
		acc, err := f.svc.Chart.CreateAccount(context.Background(), tenantID, dto.CreateAccountRequest{
			Code: a.code, Name: a.name, AccountType: a.typ,
		}, actorID)
		require.NoError(t, err)
		f.accounts[a.code] = acc.AccountID
	}
	return f
}

func cashSale(amount, tax string) dto.AddBusinessTransactionRequest {
	line := dto.BusinessTransactionLineRequest{Description: "counter sale", Amount: decimal.RequireFromString(amount)}
	if tax != "" {
		line.TaxCode = "VAT_OUT"
		line.TaxAmount = decimal.RequireFromString(tax)
	}
	return dto.AddBusinessTransactionRequest{Type: "cash_sale", Memo: "shop", Lines: []dto.BusinessTransactionLineRequest{line}}
}

// draftSet creates a set holding bts.
func (f *ledgerFixture) draftSet(t *testing.T, bts ...dto.AddBusinessTransactionRequest) string {
	t.Helper()
	ctx := context.Background()
	set, err := f.svc.TransactionSet.CreateTransactionSet(ctx, tenantID, dto.CreateTransactionSetRequest{
		Source: domain.SourceWeb, BusinessDate: &businessDay,
	}, actorID)
	require.NoError(t, err)
	for _, bt := range bts {
		_, err := f.svc.TransactionSet.AddBusinessTransaction(ctx, tenantID, set.ID, bt, actorID)
		require.NoError(t, err)
	}
	return set.ID
}

func (f *ledgerFixture) submit(t *testing.T, setID string) {
	t.Helper()
	_, err := f.svc.TransactionSet.SubmitTransactionSet(context.Background(), tenantID, setID, actorID)
	require.NoError(t, err)
}

// reviewSet creates a set holding bts and submits it.
func (f *ledgerFixture) reviewSet(t *testing.T, bts ...dto.AddBusinessTransactionRequest) string {
	t.Helper()
	setID := f.draftSet(t, bts...)
	f.submit(t, setID)
	return setID
}

// recordedSet records lines on a draft cash sale and submits it.
func (f *ledgerFixture) recordedSet(t *testing.T, lines []domain.IntentLine) string {
	t.Helper()
	setID := f.draftSet(t, cashSale("100.00", ""))
	_, err := f.svc.Intent.RecordIntent(context.Background(), tenantID, setID, lines, actorID)
	require.NoError(t, err)
	f.submit(t, setID)
	return setID
}

// resolvedSet is a reviewed cash sale with a resolved intent, ready to post.
func (f *ledgerFixture) resolvedSet(t *testing.T) string {
	t.Helper()
	setID := f.reviewSet(t, cashSale("100.00", "18.00"))
	_, err := f.svc.Intent.ResolveIntent(context.Background(), tenantID, setID, actorID)
	require.NoError(t, err)
	return setID
}

func (f *ledgerFixture) countEntries(t *testing.T) int {
	t.Helper()
	count := 0
	params := dto.ListJournalEntriesParams{Limit: 100}
	for {
		page, err := f.svc.Journal.ListJournalEntries(context.Background(), tenantID, params)
		require.NoError(t, err)
		count += len(page.Entries)
		if page.NextToken == nil {
			return count
		}
		params.NextToken = *page.NextToken
	}
}

func (f *ledgerFixture) balance(t *testing.T, code string) *domain.AccountBalance {
	t.Helper()
	b, err := f.svc.Balance.AccountBalance(context.Background(), tenantID, f.accounts[code], time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	return b
}

func TestPostCashSaleWithTax(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	setID := f.resolvedSet(t)

	entryID, err := f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.NoError(t, err)
	require.NotEmpty(t, entryID)

	got, err := f.svc.Journal.GetJournalEntry(ctx, tenantID, entryID)
	require.NoError(t, err)
	assert.Equal(t, businessDay, got.Entry.PostingDate)
	assert.Equal(t, setID, got.Entry.SourceTransactionSetID)
	require.Len(t, got.Lines, 3)
	assert.Equal(t, f.accounts["1000"], got.Lines[0].AccountID)
	assert.True(t, got.Lines[0].Debit.Equal(decimal.RequireFromString("118")))
	assert.Equal(t, f.accounts["4000"], got.Lines[1].AccountID)
	assert.True(t, got.Lines[1].Credit.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, f.accounts["2100"], got.Lines[2].AccountID)
	assert.True(t, got.Lines[2].Credit.Equal(decimal.RequireFromString("18")))
	for i, l := range got.Lines {
		assert.Equal(t, i+1, l.LineNo)
	}

	set, _, err := f.svc.TransactionSet.GetTransactionSet(ctx, tenantID, setID)
	require.NoError(t, err)
	assert.Equal(t, domain.SetPosted, set.Status)

	run, err := f.store.FindPostingRunBySet(ctx, tenantID, setID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, run.Status)
	require.NotNil(t, run.JournalEntryID)
	assert.Equal(t, entryID, *run.JournalEntryID)

	events, err := f.store.ListAuditEvents(ctx, tenantID, domain.AuditEntityJournalEntry, entryID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.AuditPosted, events[0].Action)
	assert.Equal(t, setID, events[0].Metadata["transaction_set_id"])

	assert.True(t, f.balance(t, "1000").DisplayBalance.Equal(decimal.RequireFromString("118")))
	assert.True(t, f.balance(t, "4000").DisplayBalance.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.PostAttempts.WithLabelValues(metrics.OutcomePosted)))
}

func TestPostIsIdempotent(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	setID := f.resolvedSet(t)

	first, err := f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.NoError(t, err)
	second, err := f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.countEntries(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.PostAttempts.WithLabelValues(metrics.OutcomeIdempotent)))
}

func TestConcurrentPostsCreateOneEntry(t *testing.T) {
	f := newLedgerFixture(t)
	setID := f.resolvedSet(t)

	const callers = 16
	var wg sync.WaitGroup
	ids := make([]string, callers)
	errs := make([]error, callers)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ids[i], errs[i] = f.svc.Kernel.Post(context.Background(), tenantID, setID, actorID)
		}(i)
	}
	close(start)
	wg.Wait()

	winner := ""
	for i := range ids {
		if errs[i] != nil {
			assert.ErrorIs(t, errs[i], apperrors.ErrPostingInProgress)
			continue
		}
		if winner == "" {
			winner = ids[i]
		}
		assert.Equal(t, winner, ids[i])
	}
	require.NotEmpty(t, winner)
	assert.Equal(t, 1, f.countEntries(t))
}

func TestPostUnbalancedIntentRecordsFailure(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	setID := f.recordedSet(t, []domain.IntentLine{
		{AccountID: f.accounts["1000"], Side: domain.Debit, Amount: decimal.NewFromInt(100)},
		{AccountID: f.accounts["4000"], Side: domain.Credit, Amount: decimal.NewFromInt(90)},
	})

	_, err := f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.ErrorIs(t, err, apperrors.ErrUnbalancedIntent)
	pe, ok := apperrors.AsPostingError(err)
	require.True(t, ok)
	assert.Equal(t, setID, pe.EntityID)
	assert.Contains(t, pe.Actual, "credits 90")

	assert.Equal(t, 0, f.countEntries(t))
	set, _, err := f.svc.TransactionSet.GetTransactionSet(ctx, tenantID, setID)
	require.NoError(t, err)
	assert.Equal(t, domain.SetReview, set.Status)

	run, err := f.store.FindPostingRunBySet(ctx, tenantID, setID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, run.Status)
	require.NotNil(t, run.Error)
	assert.Contains(t, *run.Error, string(apperrors.KindUnbalancedIntent))

	_, err = f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	assert.ErrorIs(t, err, apperrors.ErrPreviousAttemptFailed)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.PostAttempts.WithLabelValues(metrics.OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.PostAttempts.WithLabelValues(metrics.OutcomePrevFailed)))
}

func TestRetryAfterOperatorClearsFailedRun(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	setID := f.recordedSet(t, []domain.IntentLine{
		{AccountID: f.accounts["1000"], Side: domain.Debit, Amount: decimal.NewFromInt(100)},
		{AccountID: f.accounts["4000"], Side: domain.Credit, Amount: decimal.NewFromInt(90)},
	})
	_, err := f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.Error(t, err)

	assert.ErrorIs(t, f.svc.Operator.RetryFailedRun(ctx, tenantID, setID, "ops-1", " "), services.ErrReasonRequired)
	require.NoError(t, f.svc.Operator.RetryFailedRun(ctx, tenantID, setID, "ops-1", "intent fixed upstream"))

	_, err = f.svc.Intent.ResolveIntent(ctx, tenantID, setID, actorID)
	require.NoError(t, err)
	entryID, err := f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.NoError(t, err)
	assert.NotEmpty(t, entryID)

	assert.ErrorIs(t, f.svc.Operator.RetryFailedRun(ctx, tenantID, setID, "ops-1", "again"), apperrors.ErrConflict)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.OperatorActions.WithLabelValues(metrics.OutcomeRetryCleared)))
}

func TestPostRequiresReviewAndFreshIntent(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	t.Run("missing set", func(t *testing.T) {
		_, err := f.svc.Kernel.Post(ctx, tenantID, "nope", actorID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("draft set", func(t *testing.T) {
		set, err := f.svc.TransactionSet.CreateTransactionSet(ctx, tenantID, dto.CreateTransactionSetRequest{}, actorID)
		require.NoError(t, err)
		_, err = f.svc.Kernel.Post(ctx, tenantID, set.ID, actorID)
		require.ErrorIs(t, err, apperrors.ErrInvalidState)
		pe, _ := apperrors.AsPostingError(err)
		assert.Equal(t, string(domain.SetReview), pe.Expected)
		assert.Equal(t, string(domain.SetDraft), pe.Actual)
	})

	t.Run("other tenant", func(t *testing.T) {
		setID := f.resolvedSet(t)
		_, err := f.svc.Kernel.Post(ctx, "tenant-2", setID, actorID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("no intent", func(t *testing.T) {
		setID := f.reviewSet(t, cashSale("10", ""))
		_, err := f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
		assert.ErrorIs(t, err, apperrors.ErrIntentMissing)
	})

	t.Run("intent older than set", func(t *testing.T) {
		set, err := f.svc.TransactionSet.CreateTransactionSet(ctx, tenantID, dto.CreateTransactionSetRequest{BusinessDate: &businessDay}, actorID)
		require.NoError(t, err)
		_, err = f.svc.TransactionSet.AddBusinessTransaction(ctx, tenantID, set.ID, cashSale("10", ""), actorID)
		require.NoError(t, err)
		_, err = f.svc.Intent.ResolveIntent(ctx, tenantID, set.ID, actorID)
		require.NoError(t, err)
		_, err = f.svc.TransactionSet.AddBusinessTransaction(ctx, tenantID, set.ID, cashSale("5", ""), actorID)
		require.NoError(t, err)
		_, err = f.svc.TransactionSet.SubmitTransactionSet(ctx, tenantID, set.ID, actorID)
		require.NoError(t, err)

		_, err = f.svc.Kernel.Post(ctx, tenantID, set.ID, actorID)
		assert.ErrorIs(t, err, apperrors.ErrIntentStale)
		_, err = f.store.FindPostingRunBySet(ctx, tenantID, set.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound, "stale intents never open a run")
	})
}

func TestPostHonorsApprovalGate(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	setID := f.resolvedSet(t)

	approval, err := f.svc.Approval.RequestApproval(ctx, tenantID, dto.RequestApprovalRequest{
		EntityType: domain.EntityTypeTransactionSet, EntityID: setID, RequiredRoleName: "controller",
	}, actorID)
	require.NoError(t, err)

	_, err = f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.ErrorIs(t, err, apperrors.ErrApprovalRequired)
	_, err = f.store.FindPostingRunBySet(ctx, tenantID, setID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Approval.DecideApproval(ctx, tenantID, approval.ID, domain.ApprovalApproved, "clerk", []string{"bookkeeper"})
	assert.ErrorIs(t, err, services.ErrMissingRole)

	decided, err := f.svc.Approval.DecideApproval(ctx, tenantID, approval.ID, domain.ApprovalApproved, "boss", []string{"controller"})
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, decided.Status)

	_, err = f.svc.Approval.DecideApproval(ctx, tenantID, approval.ID, domain.ApprovalRejected, "boss", []string{"controller"})
	assert.ErrorIs(t, err, services.ErrApprovalDecided)

	entryID, err := f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.NoError(t, err)
	assert.NotEmpty(t, entryID)
}

func TestPostBlockedByRejection(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	setID := f.resolvedSet(t)

	approval, err := f.svc.Approval.RequestApproval(ctx, tenantID, dto.RequestApprovalRequest{
		EntityType: domain.EntityTypeTransactionSet, EntityID: setID, RequiredRoleName: "controller",
	}, actorID)
	require.NoError(t, err)
	_, err = f.svc.Approval.DecideApproval(ctx, tenantID, approval.ID, domain.ApprovalRejected, "boss", []string{"controller"})
	require.NoError(t, err)

	_, err = f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	assert.ErrorIs(t, err, apperrors.ErrApprovalRejected)
	assert.Equal(t, 0, f.countEntries(t))
}

func TestApprovedIntentCannotBeReplaced(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	setID := f.resolvedSet(t)

	approval, err := f.svc.Approval.RequestApproval(ctx, tenantID, dto.RequestApprovalRequest{
		EntityType: domain.EntityTypeTransactionSet, EntityID: setID, RequiredRoleName: "controller",
	}, actorID)
	require.NoError(t, err)
	_, err = f.svc.Approval.DecideApproval(ctx, tenantID, approval.ID, domain.ApprovalApproved, "boss", []string{"controller"})
	require.NoError(t, err)

	_, err = f.svc.Intent.RecordIntent(ctx, tenantID, setID, []domain.IntentLine{
		{AccountID: f.accounts["5000"], Side: domain.Debit, Amount: decimal.NewFromInt(99999)},
		{AccountID: f.accounts["1000"], Side: domain.Credit, Amount: decimal.NewFromInt(99999)},
	}, "mallory")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = f.svc.Intent.ResolveIntent(ctx, tenantID, setID, actorID)
	require.NoError(t, err, "resolving from the frozen facts stays allowed")

	_, err = f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.NoError(t, err)
	assert.True(t, f.balance(t, "5000").Net.IsZero())
	assert.True(t, f.balance(t, "1000").Net.Equal(decimal.NewFromInt(118)))
}

func TestPostRejectsInactiveAccount(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	setID := f.resolvedSet(t)

	require.NoError(t, f.svc.Chart.DeactivateAccount(ctx, tenantID, f.accounts["2100"], actorID))

	_, err := f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.ErrorIs(t, err, apperrors.ErrIntentResolution)
	assert.ErrorIs(t, err, services.ErrAccountInactive)

	run, err := f.store.FindPostingRunBySet(ctx, tenantID, setID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Equal(t, 0, f.countEntries(t))
}

func TestCancelledPostStillRecordsFailure(t *testing.T) {
	f := newLedgerFixture(t)
	setID := f.resolvedSet(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.ErrorIs(t, err, context.Canceled)

	run, err := f.store.FindPostingRunBySet(context.Background(), tenantID, setID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Equal(t, 0, f.countEntries(t))
}

func TestSweepStuckRuns(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	setID := f.resolvedSet(t)

	stuck := domain.PostingRun{
		ID: "run-stuck", TenantID: tenantID, TransactionSetID: setID,
		Status: domain.RunStarted, StartedByActorID: actorID, StartedAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, f.store.CreatePostingRun(ctx, stuck))
	fresh := domain.PostingRun{
		ID: "run-fresh", TenantID: tenantID, TransactionSetID: "other-set",
		Status: domain.RunStarted, StartedAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.CreatePostingRun(ctx, fresh))

	_, err := f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.ErrorIs(t, err, apperrors.ErrPostingInProgress)

	swept, err := f.svc.Operator.SweepStuckRuns(ctx, 15*time.Minute, "ops-1")
	require.NoError(t, err)
	require.Len(t, swept, 1)
	assert.Equal(t, "run-stuck", swept[0].ID)

	run, err := f.store.FindPostingRunBySet(ctx, tenantID, setID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, run.Status)
	require.NotNil(t, run.Error)
	assert.Equal(t, "stuck: exceeded 15m0s", *run.Error)

	events, err := f.store.ListAuditEvents(ctx, tenantID, domain.AuditEntityPostingRun, "run-stuck")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.AuditMarkedStuck, events[0].Action)

	_, err = f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	assert.ErrorIs(t, err, apperrors.ErrPreviousAttemptFailed)
}

func TestReopenRefusedWhileRunInProgress(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	setID := f.resolvedSet(t)

	require.NoError(t, f.store.CreatePostingRun(ctx, domain.PostingRun{
		ID: "run-1", TenantID: tenantID, TransactionSetID: setID, Status: domain.RunStarted, StartedAt: time.Now(),
	}))
	_, err := f.svc.TransactionSet.ReopenTransactionSet(ctx, tenantID, setID, actorID)
	assert.ErrorIs(t, err, apperrors.ErrPostingInProgress)

	require.NoError(t, f.store.MarkPostingRunFailed(ctx, "run-1", "boom", time.Now()))
	set, err := f.svc.TransactionSet.ReopenTransactionSet(ctx, tenantID, setID, actorID)
	require.NoError(t, err)
	assert.Equal(t, domain.SetDraft, set.Status)
}

// TestPostRandomIntents posts randomly generated intents and checks the ledger invariants:
// an entry exists exactly when the intent was valid, and every entry balances.
func TestPostRandomIntents(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(20240301))
	codes := []string{"1000", "1100", "2000", "4000", "5000"}

	posted := 0
	for i := 0; i < 60; i++ {

		n := 2 + rng.Intn(4)
		lines := make([]domain.IntentLine, 0, n+1)
		for j := 0; j < n; j++ {
			side := domain.Debit
			if rng.Intn(2) == 0 {
				side = domain.Credit
			}
			lines = append(lines, domain.IntentLine{
				AccountID: f.accounts[codes[rng.Intn(len(codes))]],
				Side:      side,
				Amount:    decimal.New(int64(1+rng.Intn(100000)), -2),
			})
		}
		if rng.Intn(2) == 0 {
			debits, credits := domain.Totals(lines)
			diff := debits.Sub(credits)
			if !diff.IsZero() {
				side := domain.Credit
				if diff.IsNegative() {
					side = domain.Debit
				}
				lines = append(lines, domain.IntentLine{AccountID: f.accounts["3000"], Side: side, Amount: diff.Abs()})
			}
		}
		valid := domain.ValidateIntentLines(lines) == nil

		setID := f.recordedSet(t, lines)
		entryID, err := f.svc.Kernel.Post(ctx, tenantID, setID, actorID)

		run, runErr := f.store.FindPostingRunBySet(ctx, tenantID, setID)
		require.NoError(t, runErr)
		if !valid {
			require.Error(t, err, "iteration %d", i)
			assert.ErrorIs(t, err, apperrors.ErrUnbalancedIntent)
			assert.Equal(t, domain.RunFailed, run.Status)
			assert.Nil(t, run.JournalEntryID)
			continue
		}

		require.NoError(t, err, "iteration %d", i)
		posted++
		assert.Equal(t, domain.RunSucceeded, run.Status)
		entryLines, err := f.store.FindJournalLines(ctx, entryID)
		require.NoError(t, err)
		require.NoError(t, domain.ValidateJournalLines(entryLines))
		assert.Len(t, entryLines, len(lines))
	}

	assert.Equal(t, posted, f.countEntries(t))
	assert.Positive(t, posted)
}

func TestPostErrorsAreTyped(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.svc.Kernel.Post(context.Background(), tenantID, "missing", actorID)

	var pe *apperrors.PostingError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, apperrors.KindNotFound, pe.Kind)
	assert.Equal(t, "missing", pe.EntityID)
}
