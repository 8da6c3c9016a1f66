package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(no int, account string, side Side, amount string) JournalLine {
	return NewJournalLine("je-1", no, account, side, decimal.RequireFromString(amount), "")
}

func TestValidateJournalLines(t *testing.T) {
	tests := []struct {
		name    string
		lines   []JournalLine
		wantErr error
	}{
		{
			name:  "balanced two accounts",
			lines: []JournalLine{line(1, "cash", Debit, "100.00"), line(2, "revenue", Credit, "100.00")},
		},
		{
			name: "balanced split credits",
			lines: []JournalLine{
				line(1, "cash", Debit, "110.00"),
				line(2, "revenue", Credit, "100.00"),
				line(3, "vat", Credit, "10.00"),
			},
		},
		{
			name:    "single line",
			lines:   []JournalLine{line(1, "cash", Debit, "100.00")},
			wantErr: ErrJournalMinLines,
		},
		{
			name:    "same account on both sides",
			lines:   []JournalLine{line(1, "cash", Debit, "5"), line(2, "cash", Credit, "5")},
			wantErr: ErrJournalMinAccounts,
		},
		{
			name:    "off by one cent",
			lines:   []JournalLine{line(1, "cash", Debit, "100.00"), line(2, "revenue", Credit, "99.99")},
			wantErr: ErrJournalUnbalanced,
		},
		{
			name: "both sides on one line",
			lines: []JournalLine{
				{LineNo: 1, AccountID: "cash", Debit: decimal.NewFromInt(1), Credit: decimal.NewFromInt(1)},
				line(2, "revenue", Credit, "1"),
			},
			wantErr: ErrJournalLineSides,
		},
		{
			name: "zero line",
			lines: []JournalLine{
				{LineNo: 1, AccountID: "cash", Debit: decimal.Zero, Credit: decimal.Zero},
				line(2, "revenue", Credit, "1"),
			},
			wantErr: ErrJournalLineSides,
		},
		{
			name: "negative amount",
			lines: []JournalLine{
				{LineNo: 1, AccountID: "cash", Debit: decimal.NewFromInt(-1), Credit: decimal.Zero},
				line(2, "revenue", Credit, "1"),
			},
			wantErr: ErrJournalNegative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJournalLines(tt.lines)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMirrorLines(t *testing.T) {
	original := []JournalLine{
		line(1, "cash", Debit, "110.00"),
		line(2, "revenue", Credit, "100.00"),
		line(3, "vat", Credit, "10.00"),
	}

	mirrored := MirrorLines("je-2", original)
	require.Len(t, mirrored, 3)
	require.NoError(t, ValidateJournalLines(mirrored))

	for i := range original {
		assert.Equal(t, "je-2", mirrored[i].JournalEntryID)
		assert.Equal(t, original[i].LineNo, mirrored[i].LineNo)
		assert.Equal(t, original[i].AccountID, mirrored[i].AccountID)
		assert.True(t, original[i].Debit.Equal(mirrored[i].Credit))
		assert.True(t, original[i].Credit.Equal(mirrored[i].Debit))
		assert.Equal(t, original[i].Side().Opposite(), mirrored[i].Side())
	}

	// Original and mirror net to zero per account.
	net := map[string]decimal.Decimal{}
	for _, l := range append(append([]JournalLine{}, original...), mirrored...) {
		net[l.AccountID] = net[l.AccountID].Add(l.Debit).Sub(l.Credit)
	}
	for account, amount := range net {
		assert.True(t, amount.IsZero(), "account %s should net to zero", account)
	}
}

func TestReversalMemo(t *testing.T) {
	memo := "March rent"
	assert.Equal(t, "Reversal of March rent", ReversalMemo(&memo))
	assert.Equal(t, "Reversal", ReversalMemo(nil))
}
