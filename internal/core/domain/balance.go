package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance is the projection of journal lines onto one account (or its subtree) at a date.
type AccountBalance struct {
	TenantID           string          `json:"tenantID"`
	AccountID          string          `json:"accountID"`
	AsOf               time.Time       `json:"asOf"`
	IncludeDescendants bool            `json:"includeDescendants"`
	Debits             decimal.Decimal `json:"debits"`
	Credits            decimal.Decimal `json:"credits"`
	Net                decimal.Decimal `json:"net"` // debits - credits
	NormalBalance      Side            `json:"normalBalance"`
	DisplayBalance     decimal.Decimal `json:"displayBalance"`
}

// LineTotals is the sum of the debit and credit columns for one account.
type LineTotals struct {
	AccountID string
	Debits    decimal.Decimal
	Credits   decimal.Decimal
}

// NewAccountBalance folds per-account totals into a balance shown in the sign of normal.
func NewAccountBalance(tenantID, accountID string, asOf time.Time, includeDescendants bool, normal Side, totals []LineTotals) AccountBalance {
	debits, credits := decimal.Zero, decimal.Zero
	for _, t := range totals {
		debits = debits.Add(t.Debits)
		credits = credits.Add(t.Credits)
	}
	net := debits.Sub(credits)
	display := net
	if normal == Credit {
		display = net.Neg()
	}
	return AccountBalance{
		TenantID:           tenantID,
		AccountID:          accountID,
		AsOf:               asOf,
		IncludeDescendants: includeDescendants,
		Debits:             debits,
		Credits:            credits,
		Net:                net,
		NormalBalance:      normal,
		DisplayBalance:     display,
	}
}
