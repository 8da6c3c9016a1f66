package services_test

import (
	"testing"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	"github.com/SscSPs/bizledger/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolverChart() *domain.Chart {
	accounts := []domain.Account{
		{AccountID: "cash", Code: "1000", AccountType: domain.Asset, IsActive: true},
		{AccountID: "ar", Code: "1100", AccountType: domain.Asset, IsActive: true},
		{AccountID: "vat-in", Code: "1200", AccountType: domain.Asset, IsActive: true},
		{AccountID: "ap", Code: "2000", AccountType: domain.Liability, IsActive: true},
		{AccountID: "vat-out", Code: "2100", AccountType: domain.Liability, IsActive: true},
		{AccountID: "sales", Code: "4000", AccountType: domain.Income, IsActive: true},
		{AccountID: "purchases", Code: "5000", AccountType: domain.Expense, IsActive: false},
	}
	return domain.NewChart("t1", accounts)
}

func bt(txType string, lines ...domain.BusinessTransactionLine) domain.BusinessTransaction {
	for i := range lines {
		lines[i].LineNo = i + 1
	}
	return domain.BusinessTransaction{ID: "bt-" + txType, Type: txType, Lines: lines}
}

func amountLine(amount, taxCode, tax string) domain.BusinessTransactionLine {
	l := domain.BusinessTransactionLine{Amount: decimal.RequireFromString(amount), TaxCode: taxCode}
	if tax != "" {
		l.TaxAmount = decimal.RequireFromString(tax)
	}
	return l
}

func TestResolveIntentLinesMergesPerAccountAndSide(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bts := []domain.BusinessTransaction{
		bt("credit_sale", amountLine("100", "vat_out", "18"), amountLine("50", "", "")),
		bt("customer_payment", amountLine("118", "", "")),
	}

	lines, err := services.ResolveIntentLines("set-1", bts, resolverChart(), domain.DefaultPostingRules(), day)
	require.NoError(t, err)

	type got struct {
		account string
		side    domain.Side
		amount  string
	}
	var actual []got
	for _, l := range lines {
		actual = append(actual, got{l.AccountID, l.Side, l.Amount.String()})
	}
	assert.Equal(t, []got{
		{"ar", domain.Debit, "168"},
		{"sales", domain.Credit, "150"},
		{"vat-out", domain.Credit, "18"},
		{"cash", domain.Debit, "118"},
		{"ar", domain.Credit, "118"},
	}, actual)
	assert.NoError(t, domain.ValidateIntentLines(lines))
}

func TestResolveIntentLinesTaxOnDebitSide(t *testing.T) {
	rules := domain.DefaultPostingRules()
	rules.Rules = append(rules.Rules, domain.PostingRule{Type: "cash_purchase", DebitAccountCode: "2000", CreditAccountCode: "1000", TaxSide: domain.Debit})

	lines, err := services.ResolveIntentLines("set-1", []domain.BusinessTransaction{
		bt("cash_purchase", amountLine("200", "VAT_IN", "36")),
	}, resolverChart(), rules, time.Now())
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "vat-in", lines[2].AccountID)
	assert.Equal(t, domain.Debit, lines[2].Side)
	assert.Equal(t, "cash", lines[1].AccountID)
	assert.True(t, lines[1].Amount.Equal(decimal.NewFromInt(236)))
}

func TestResolveIntentLinesFailures(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	chart := resolverChart()
	rules := domain.DefaultPostingRules()

	cases := map[string][]domain.BusinessTransaction{
		"no transactions":  nil,
		"unknown type":     {bt("barter", amountLine("10", "", ""))},
		"inactive account": {bt("purchase", amountLine("10", "", ""))},
		"unknown tax code": {bt("cash_sale", amountLine("10", "GST", "1"))},
		"zero amount":      {bt("cash_sale", amountLine("0", "", ""))},
		"negative amount":  {bt("cash_sale", amountLine("-5", "", ""))},
		"negative tax":     {bt("cash_sale", amountLine("10", "VAT_OUT", "-1"))},
	}
	for name, bts := range cases {
		t.Run(name, func(t *testing.T) {
			lines, err := services.ResolveIntentLines("set-1", bts, chart, rules, day)
			assert.Nil(t, lines)
			require.ErrorIs(t, err, apperrors.ErrIntentResolution)
			pe, ok := apperrors.AsPostingError(err)
			require.True(t, ok)
			assert.Equal(t, "set-1", pe.EntityID)
		})
	}

	t.Run("rule not yet effective", func(t *testing.T) {
		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		dated := domain.PostingRules{Rules: []domain.PostingRule{{Type: "cash_sale", DebitAccountCode: "1000", CreditAccountCode: "4000", EffectiveFrom: &from}}}
		_, err := services.ResolveIntentLines("set-1", []domain.BusinessTransaction{bt("cash_sale", amountLine("10", "", ""))}, chart, dated, day)
		assert.ErrorIs(t, err, apperrors.ErrIntentResolution)
	})

	t.Run("quantity times unit price", func(t *testing.T) {
		line := domain.BusinessTransactionLine{Quantity: decimal.NewFromInt(4), UnitPrice: decimal.RequireFromString("2.5")}
		lines, err := services.ResolveIntentLines("set-1", []domain.BusinessTransaction{bt("cash_sale", line)}, chart, rules, day)
		require.NoError(t, err)
		assert.True(t, lines[0].Amount.Equal(decimal.NewFromInt(10)))
	})
}
