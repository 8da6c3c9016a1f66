package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side indicates whether a ledger line is a Debit or a Credit.
type Side string

const (
	Debit  Side = "DEBIT"
	Credit Side = "CREDIT"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Debit {
		return Credit
	}
	return Debit
}

// IsValid reports whether s is DEBIT or CREDIT.
func (s Side) IsValid() bool {
	return s == Debit || s == Credit
}

var (
	ErrIntentEmpty        = errors.New("posting intent has no lines")
	ErrIntentLineSide     = errors.New("posting intent line has an invalid side")
	ErrIntentLineAmount   = errors.New("posting intent line amount must be positive")
	ErrIntentLineAccount  = errors.New("posting intent line has no account")
	ErrIntentUnbalanced   = errors.New("posting intent debits and credits differ")
	ErrIntentFewAccounts  = errors.New("posting intent must touch at least two accounts")
	ErrIntentFewLines     = errors.New("posting intent must have at least two lines")
	ErrIntentOneSidedOnly = errors.New("posting intent must contain both debits and credits")
)

// IntentLine is one proposed ledger line. Amount is always positive; Side carries direction.
type IntentLine struct {
	AccountID   string          `json:"accountID"`
	Side        Side            `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// PostingIntent is an immutable snapshot of the debit/credit mapping for a transaction set,
// stamped with the set version and content hash it was computed from.
type PostingIntent struct {
	ID               string       `json:"id"`
	TransactionSetID string       `json:"transactionSetID"`
	SetVersion       int64        `json:"setVersion"`
	ContentHash      string       `json:"contentHash"`
	Lines            []IntentLine `json:"lines"`
	CreatedByActorID string       `json:"createdByActorID"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// Totals returns the debit and credit sums of the lines.
func Totals(lines []IntentLine) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range lines {
		if l.Side == Debit {
			debits = debits.Add(l.Amount)
		} else {
			credits = credits.Add(l.Amount)
		}
	}
	return debits, credits
}

// ValidateIntentLines checks line shape and the exact balance of debits and credits.
// The returned error wraps ErrIntentUnbalanced when only the balance is wrong.
func ValidateIntentLines(lines []IntentLine) error {
	if len(lines) == 0 {
		return ErrIntentEmpty
	}
	if len(lines) < 2 {
		return ErrIntentFewLines
	}

	accounts := make(map[string]struct{}, len(lines))
	hasDebit, hasCredit := false, false
	for i, l := range lines {
		if l.AccountID == "" {
			return fmt.Errorf("%w: line %d", ErrIntentLineAccount, i+1)
		}
		if !l.Side.IsValid() {
			return fmt.Errorf("%w: line %d has %q", ErrIntentLineSide, i+1, l.Side)
		}
		if !l.Amount.IsPositive() {
			return fmt.Errorf("%w: line %d has %s", ErrIntentLineAmount, i+1, l.Amount.String())
		}
		accounts[l.AccountID] = struct{}{}
		if l.Side == Debit {
			hasDebit = true
		} else {
			hasCredit = true
		}
	}
	if !hasDebit || !hasCredit {
		return ErrIntentOneSidedOnly
	}
	if len(accounts) < 2 {
		return ErrIntentFewAccounts
	}

	debits, credits := Totals(lines)
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits %s, credits %s", ErrIntentUnbalanced, debits.String(), credits.String())
	}
	return nil
}
