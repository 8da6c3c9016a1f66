package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalBalance(t *testing.T) {
	debitNormal := []AccountType{Asset, Expense, ContraLiability, ContraEquity, ContraIncome}
	creditNormal := []AccountType{Liability, Equity, Income, ContraAsset, ContraExpense}

	for _, at := range debitNormal {
		assert.Equal(t, Debit, at.NormalBalance(), string(at))
	}
	for _, at := range creditNormal {
		assert.Equal(t, Credit, at.NormalBalance(), string(at))
	}
	assert.False(t, AccountType("REVENUE").IsValid())
	assert.True(t, ContraAsset.IsValid())
}

func TestChartDescendants(t *testing.T) {
	parent := "assets"
	child := "current"
	chart := NewChart("t1", []Account{
		{AccountID: "assets", Code: "1000"},
		{AccountID: "current", Code: "1100", ParentAccountID: &parent},
		{AccountID: "cash", Code: "1110", ParentAccountID: &child},
		{AccountID: "revenue", Code: "4000"},
	})

	assert.ElementsMatch(t, []string{"assets", "current", "cash"}, chart.Descendants("assets"))
	assert.Equal(t, []string{"revenue"}, chart.Descendants("revenue"))

	acc, ok := chart.ByCode("1110")
	assert.True(t, ok)
	assert.Equal(t, "cash", acc.AccountID)
}

func TestValidateIntentLines(t *testing.T) {
	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	ok := []IntentLine{
		{AccountID: "ar", Side: Debit, Amount: d("118.00")},
		{AccountID: "sales", Side: Credit, Amount: d("100.00")},
		{AccountID: "vat", Side: Credit, Amount: d("18.00")},
	}
	assert.NoError(t, ValidateIntentLines(ok))

	unbalanced := []IntentLine{
		{AccountID: "ar", Side: Debit, Amount: d("100.00")},
		{AccountID: "sales", Side: Credit, Amount: d("99.99")},
	}
	assert.ErrorIs(t, ValidateIntentLines(unbalanced), ErrIntentUnbalanced)

	assert.ErrorIs(t, ValidateIntentLines(nil), ErrIntentEmpty)
	assert.ErrorIs(t, ValidateIntentLines([]IntentLine{
		{AccountID: "ar", Side: Debit, Amount: d("1")},
		{AccountID: "sales", Side: Side("SIDEWAYS"), Amount: d("1")},
	}), ErrIntentLineSide)
	assert.ErrorIs(t, ValidateIntentLines([]IntentLine{
		{AccountID: "ar", Side: Debit, Amount: d("0")},
		{AccountID: "sales", Side: Credit, Amount: d("0")},
	}), ErrIntentLineAmount)
	assert.ErrorIs(t, ValidateIntentLines([]IntentLine{
		{AccountID: "ar", Side: Debit, Amount: d("1")},
		{AccountID: "ar", Side: Credit, Amount: d("1")},
	}), ErrIntentFewAccounts)

	debits, credits := Totals(ok)
	assert.True(t, debits.Equal(d("118")))
	assert.True(t, credits.Equal(d("118")))
}

func TestGateDecisionFor(t *testing.T) {
	assert.Equal(t, GateClear, GateDecisionFor(nil))
	assert.Equal(t, GateClear, GateDecisionFor(&Approval{Status: ApprovalApproved}))
	assert.Equal(t, GateBlockedPending, GateDecisionFor(&Approval{Status: ApprovalPending}))
	assert.Equal(t, GateBlockedRejected, GateDecisionFor(&Approval{Status: ApprovalRejected}))
}

func TestPostingRunIsStuck(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	run := PostingRun{Status: RunStarted, StartedAt: now.Add(-20 * time.Minute)}
	assert.True(t, run.IsStuck(now, 15*time.Minute))
	assert.False(t, run.IsStuck(now, 30*time.Minute))

	run.Status = RunFailed
	assert.False(t, run.IsStuck(now, time.Minute))
}

func TestNewAccountBalance(t *testing.T) {
	asOf := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	totals := []LineTotals{
		{AccountID: "sales", Debits: decimal.NewFromInt(10), Credits: decimal.NewFromInt(250)},
		{AccountID: "sales-online", Debits: decimal.Zero, Credits: decimal.NewFromInt(50)},
	}

	bal := NewAccountBalance("t1", "sales", asOf, true, Credit, totals)
	assert.True(t, bal.Net.Equal(decimal.NewFromInt(-290)))
	assert.True(t, bal.DisplayBalance.Equal(decimal.NewFromInt(290)))

	bal = NewAccountBalance("t1", "cash", asOf, false, Debit, []LineTotals{{AccountID: "cash", Debits: decimal.NewFromInt(300), Credits: decimal.NewFromInt(100)}})
	assert.True(t, bal.Net.Equal(decimal.NewFromInt(200)))
	assert.True(t, bal.DisplayBalance.Equal(decimal.NewFromInt(200)))
}

func TestBusinessTransactionLineNetAmount(t *testing.T) {
	l := BusinessTransactionLine{Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("2.50")}
	assert.True(t, l.NetAmount().Equal(decimal.RequireFromString("7.5")))

	l.Amount = decimal.NewFromInt(8)
	assert.True(t, l.NetAmount().Equal(decimal.NewFromInt(8)))
}
