package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	"github.com/SscSPs/bizledger/internal/core/services"
	"github.com/SscSPs/bizledger/internal/dto"
	"github.com/SscSPs/bizledger/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postedEntry posts a cash sale of 100 + 18 VAT and returns the journal entry id.
func (f *ledgerFixture) postedEntry(t *testing.T) string {
	t.Helper()
	entryID, err := f.svc.Kernel.Post(context.Background(), tenantID, f.resolvedSet(t), actorID)
	require.NoError(t, err)
	return entryID
}

func TestReverseNetsBalancesToZero(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	entryID := f.postedEntry(t)

	reversalID, err := f.svc.Reversal.Reverse(ctx, tenantID, entryID, "duplicate sale", actorID)
	require.NoError(t, err)
	require.NotEqual(t, entryID, reversalID)

	for _, code := range []string{"1000", "4000", "2100"} {
		assert.True(t, f.balance(t, code).Net.IsZero(), "account %s", code)
	}

	original, err := f.svc.Journal.GetJournalEntry(ctx, tenantID, entryID)
	require.NoError(t, err)
	require.NotNil(t, original.ReversedBy)
	assert.Equal(t, reversalID, *original.ReversedBy)
	assert.Equal(t, "duplicate sale", *original.ReversalNote)

	reversal, err := f.svc.Journal.GetJournalEntry(ctx, tenantID, reversalID)
	require.NoError(t, err)
	require.NotNil(t, reversal.ReversalOf)
	assert.Equal(t, entryID, *reversal.ReversalOf)
	assert.Empty(t, reversal.Entry.SourceTransactionSetID)
	assert.Equal(t, "Reversal of "+original.Entry.Memo, reversal.Entry.Memo)
	require.Len(t, reversal.Lines, len(original.Lines))
	for i := range reversal.Lines {
		assert.Equal(t, original.Lines[i].AccountID, reversal.Lines[i].AccountID)
		assert.True(t, original.Lines[i].Debit.Equal(reversal.Lines[i].Credit))
		assert.True(t, original.Lines[i].Credit.Equal(reversal.Lines[i].Debit))
	}

	events, err := f.store.ListAuditEvents(ctx, tenantID, domain.AuditEntityJournalEntry, reversalID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.AuditReversed, events[0].Action)
	assert.Equal(t, entryID, events[0].Metadata["original_journal_entry_id"])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.Reversals.WithLabelValues(metrics.OutcomeReversed)))
}

func TestReverseTwiceIsRefused(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	entryID := f.postedEntry(t)

	_, err := f.svc.Reversal.Reverse(ctx, tenantID, entryID, "mistake", actorID)
	require.NoError(t, err)

	_, err = f.svc.Reversal.Reverse(ctx, tenantID, entryID, "mistake again", actorID)
	require.ErrorIs(t, err, apperrors.ErrAlreadyReversed)
	pe, ok := apperrors.AsPostingError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindAlreadyReversed, pe.Kind)
	assert.Equal(t, 2, f.countEntries(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.Reversals.WithLabelValues(metrics.OutcomeAlreadyRev)))
}

func TestReversingAReversalIsAllowed(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	entryID := f.postedEntry(t)

	reversalID, err := f.svc.Reversal.Reverse(ctx, tenantID, entryID, "mistake", actorID)
	require.NoError(t, err)
	again, err := f.svc.Reversal.Reverse(ctx, tenantID, reversalID, "the sale was real", actorID)
	require.NoError(t, err)

	assert.Equal(t, 3, f.countEntries(t))
	assert.True(t, f.balance(t, "1000").DisplayBalance.Equal(decimal.RequireFromString("118")))

	got, err := f.svc.Journal.GetJournalEntry(ctx, tenantID, reversalID)
	require.NoError(t, err)
	require.NotNil(t, got.ReversalOf)
	require.NotNil(t, got.ReversedBy)
	assert.Equal(t, again, *got.ReversedBy)
}

func TestConcurrentReversalsCreateOneEntry(t *testing.T) {
	f := newLedgerFixture(t)
	entryID := f.postedEntry(t)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Reversal.Reverse(context.Background(), tenantID, entryID, "race", actorID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrAlreadyReversed)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, f.countEntries(t))
}

func TestReverseValidation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	entryID := f.postedEntry(t)

	_, err := f.svc.Reversal.Reverse(ctx, tenantID, entryID, "   ", actorID)
	assert.ErrorIs(t, err, services.ErrReasonRequired)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.Reversal.Reverse(ctx, tenantID, "missing", "reason", actorID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Reversal.Reverse(ctx, "tenant-2", entryID, "reason", actorID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 1, f.countEntries(t))
}

func TestReverseOnUsesGivenPostingDate(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	entryID := f.postedEntry(t)

	on := time.Date(2024, 3, 31, 17, 45, 0, 0, time.UTC)
	reversalID, err := f.svc.Reversal.ReverseOn(ctx, tenantID, entryID, "month end", actorID, on)
	require.NoError(t, err)

	got, err := f.svc.Journal.GetJournalEntry(ctx, tenantID, reversalID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", got.Entry.PostingDate)

	mid, err := f.svc.Balance.AccountBalance(ctx, tenantID, f.accounts["1000"], time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	assert.True(t, mid.DisplayBalance.Equal(decimal.RequireFromString("118")))
	assert.True(t, f.balance(t, "1000").Net.IsZero())
}

func TestReverseOnRefusesDateBeforeOriginal(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	entryID := f.postedEntry(t)

	_, err := f.svc.Reversal.ReverseOn(ctx, tenantID, entryID, "wrong year", actorID, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, services.ErrReversalBackdated)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 1, f.countEntries(t))

	before, err := f.svc.Balance.AccountBalance(ctx, tenantID, f.accounts["1000"], time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	assert.True(t, before.Net.IsZero())

	reversalID, err := f.svc.Reversal.ReverseOn(ctx, tenantID, entryID, "same day", actorID, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	got, err := f.svc.Journal.GetJournalEntry(ctx, tenantID, reversalID)
	require.NoError(t, err)
	assert.Equal(t, businessDay, got.Entry.PostingDate)
}

func TestListJournalEntriesPagesNewestFirst(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.postedEntry(t)
	}

	page, err := f.svc.Journal.ListJournalEntries(ctx, tenantID, dto.ListJournalEntriesParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Entries, 2)
	require.NotNil(t, page.NextToken)
	assert.Equal(t, 5, f.countEntries(t))

	_, err = f.svc.Journal.ListJournalEntries(ctx, tenantID, dto.ListJournalEntriesParams{Limit: 2, NextToken: "not-a-token"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	other, err := f.svc.Journal.ListJournalEntries(ctx, "tenant-2", dto.ListJournalEntriesParams{})
	require.NoError(t, err)
	assert.Empty(t, other.Entries)
	assert.Nil(t, other.NextToken)
}

func TestAccountBalanceIncludesDescendants(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	parent := f.accounts["1000"]

	till, err := f.svc.Chart.CreateAccount(ctx, tenantID, dto.CreateAccountRequest{
		Code: "1010", Name: "Till", AccountType: domain.Asset, ParentAccountID: &parent,
	}, actorID)
	require.NoError(t, err)

	rules := domain.DefaultPostingRules()
	rules.Rules = append(rules.Rules, domain.PostingRule{Type: "till_sale", DebitAccountCode: "1010", CreditAccountCode: "4000"})
	cfgSvc := services.NewIntentService(f.store, f.store, f.svc.Chart, rules)

	setID := f.reviewSet(t, cashSale("50", ""), dto.AddBusinessTransactionRequest{
		Type:  "till_sale",
		Lines: []dto.BusinessTransactionLineRequest{{Amount: decimal.NewFromInt(30)}},
	})
	_, err = cfgSvc.ResolveIntent(ctx, tenantID, setID, actorID)
	require.NoError(t, err)
	_, err = f.svc.Kernel.Post(ctx, tenantID, setID, actorID)
	require.NoError(t, err)

	asOf := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	own, err := f.svc.Balance.AccountBalance(ctx, tenantID, parent, asOf, false)
	require.NoError(t, err)
	assert.True(t, own.DisplayBalance.Equal(decimal.NewFromInt(50)))

	tree, err := f.svc.Balance.AccountBalance(ctx, tenantID, parent, asOf, true)
	require.NoError(t, err)
	assert.True(t, tree.IncludeDescendants)
	assert.True(t, tree.DisplayBalance.Equal(decimal.NewFromInt(80)))

	child, err := f.svc.Balance.AccountBalance(ctx, tenantID, till.AccountID, asOf, true)
	require.NoError(t, err)
	assert.True(t, child.DisplayBalance.Equal(decimal.NewFromInt(30)))

	sales := f.balance(t, "4000")
	assert.Equal(t, domain.Credit, sales.NormalBalance)
	assert.True(t, sales.DisplayBalance.Equal(decimal.NewFromInt(80)))
	assert.True(t, sales.Net.Equal(decimal.NewFromInt(-80)))
}
