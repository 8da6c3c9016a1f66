package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrJournalMinLines    = errors.New("journal entry must have at least two lines")
	ErrJournalMinAccounts = errors.New("journal entry must affect at least two different accounts")
	ErrJournalLineSides   = errors.New("journal line must have exactly one of debit or credit set")
	ErrJournalNegative    = errors.New("journal line amounts cannot be negative")
	ErrJournalUnbalanced  = errors.New("journal entry debits and credits do not balance")
)

// JournalEntry is a posted, immutable ledger record.
type JournalEntry struct {
	ID                     string    `json:"id"`
	TenantID               string    `json:"tenantID"`
	PostingDate            time.Time `json:"postingDate"`
	EntryDate              time.Time `json:"entryDate"`
	Memo                   *string   `json:"memo,omitempty"`
	SourceTransactionSetID *string   `json:"sourceTransactionSetID,omitempty"`
	PostedByActorID        string    `json:"postedByActorID"`
	PostedAt               time.Time `json:"postedAt"`
}

// JournalLine is one debit or credit of a journal entry. Exactly one of Debit or Credit is non-zero.
type JournalLine struct {
	ID             string          `json:"id"`
	JournalEntryID string          `json:"journalEntryID"`
	LineNo         int             `json:"lineNo"`
	AccountID      string          `json:"accountID"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Description    *string         `json:"description,omitempty"`
}

// Side returns the side carrying the line amount.
func (l JournalLine) Side() Side {
	if l.Debit.IsZero() {
		return Credit
	}
	return Debit
}

// Amount returns the non-zero amount of the line.
func (l JournalLine) Amount() decimal.Decimal {
	if l.Debit.IsZero() {
		return l.Credit
	}
	return l.Debit
}

// NewJournalLine builds a line with the amount on the given side.
func NewJournalLine(entryID string, lineNo int, accountID string, side Side, amount decimal.Decimal, description string) JournalLine {
	line := JournalLine{
		JournalEntryID: entryID,
		LineNo:         lineNo,
		AccountID:      accountID,
		Debit:          decimal.Zero,
		Credit:         decimal.Zero,
	}
	if side == Debit {
		line.Debit = amount
	} else {
		line.Credit = amount
	}
	if description != "" {
		line.Description = &description
	}
	return line
}

// ValidateJournalLines enforces the double-entry invariants on a set of lines.
func ValidateJournalLines(lines []JournalLine) error {
	if len(lines) < 2 {
		return ErrJournalMinLines
	}

	debits, credits := decimal.Zero, decimal.Zero
	accounts := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d", ErrJournalNegative, l.LineNo)
		}
		if l.Debit.IsZero() == l.Credit.IsZero() {
			return fmt.Errorf("%w: line %d", ErrJournalLineSides, l.LineNo)
		}
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
		accounts[l.AccountID] = struct{}{}
	}

	if len(accounts) < 2 {
		return ErrJournalMinAccounts
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits %s, credits %s", ErrJournalUnbalanced, debits.String(), credits.String())
	}
	return nil
}

// MirrorLines returns the reversal lines of an entry: same accounts, amounts and order, sides swapped.
func MirrorLines(reversalEntryID string, original []JournalLine) []JournalLine {
	mirrored := make([]JournalLine, len(original))
	for i, l := range original {
		mirrored[i] = JournalLine{
			JournalEntryID: reversalEntryID,
			LineNo:         l.LineNo,
			AccountID:      l.AccountID,
			Debit:          l.Credit,
			Credit:         l.Debit,
			Description:    l.Description,
		}
	}
	return mirrored
}
