package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

type sideKey struct {
	accountID string
	side      domain.Side
}

// intentBuilder merges proposed lines per (account, side), keeping first-seen order.
type intentBuilder struct {
	order []sideKey
	lines map[sideKey]*domain.IntentLine
}

func newIntentBuilder() *intentBuilder {
	return &intentBuilder{lines: make(map[sideKey]*domain.IntentLine)}
}

func (b *intentBuilder) add(accountID string, side domain.Side, amount decimal.Decimal, description string) {
	key := sideKey{accountID: accountID, side: side}
	if existing, ok := b.lines[key]; ok {
		existing.Amount = existing.Amount.Add(amount)
		return
	}
	b.order = append(b.order, key)
	b.lines[key] = &domain.IntentLine{AccountID: accountID, Side: side, Amount: amount, Description: description}
}

func (b *intentBuilder) result() []domain.IntentLine {
	out := make([]domain.IntentLine, len(b.order))
	for i, key := range b.order {
		out[i] = *b.lines[key]
	}
	return out
}

// ResolveIntentLines maps business transactions onto ledger lines using the posting rules in
// effect on asOf. It either returns a balanced set of lines or an INTENT_RESOLUTION error; it never
// returns partial output.
func ResolveIntentLines(setID string, bts []domain.BusinessTransaction, chart *domain.Chart, rules domain.PostingRules, asOf time.Time) ([]domain.IntentLine, error) {
	if len(bts) == 0 {
		return nil, apperrors.NewPostingError(apperrors.KindIntentResolution, setID, "transaction set has no business transactions")
	}

	resolve := func(code string) (string, error) {
		acc, ok := chart.ByCode(code)
		if !ok {
			return "", fmt.Errorf("unknown account code %q", code)
		}
		if !acc.IsActive {
			return "", fmt.Errorf("account %q is inactive", code)
		}
		return acc.AccountID, nil
	}
	fail := func(bt domain.BusinessTransaction, err error) error {
		return apperrors.NewPostingError(apperrors.KindIntentResolution, setID,
			fmt.Sprintf("business transaction %s (%s)", bt.ID, bt.Type)).WithCause(err)
	}

	builder := newIntentBuilder()
	for _, bt := range bts {
		rule, ok := rules.RuleFor(bt.Type, asOf)
		if !ok {
			return nil, fail(bt, fmt.Errorf("no posting rule for type %q on %s", bt.Type, asOf.Format(time.DateOnly)))
		}
		debitID, err := resolve(rule.DebitAccountCode)
		if err != nil {
			return nil, fail(bt, err)
		}
		creditID, err := resolve(rule.CreditAccountCode)
		if err != nil {
			return nil, fail(bt, err)
		}

		for _, line := range bt.Lines {
			amount := line.NetAmount()
			if !amount.IsPositive() {
				return nil, fail(bt, fmt.Errorf("line %d amount %s is not positive", line.LineNo, amount.String()))
			}
			desc := line.Description
			if desc == "" {
				desc = bt.Memo
			}
			builder.add(debitID, domain.Debit, amount, desc)
			builder.add(creditID, domain.Credit, amount, desc)

			if line.TaxAmount.IsZero() {
				continue
			}
			if line.TaxAmount.IsNegative() {
				return nil, fail(bt, fmt.Errorf("line %d tax amount %s is negative", line.LineNo, line.TaxAmount.String()))
			}
			taxCode, ok := rules.TaxAccounts[strings.ToUpper(line.TaxCode)]
			if !ok {
				return nil, fail(bt, fmt.Errorf("line %d has unknown tax code %q", line.LineNo, line.TaxCode))
			}
			taxID, err := resolve(taxCode)
			if err != nil {
				return nil, fail(bt, err)
			}
			taxSide := rule.TaxSide
			if !taxSide.IsValid() {
				taxSide = domain.Credit
			}
			counterID := debitID
			if taxSide == domain.Debit {
				counterID = creditID
			}
			builder.add(taxID, taxSide, line.TaxAmount, "tax "+strings.ToUpper(line.TaxCode))
			builder.add(counterID, taxSide.Opposite(), line.TaxAmount, desc)
		}
	}

	lines := builder.result()
	if err := domain.ValidateIntentLines(lines); err != nil {
		return nil, apperrors.NewPostingError(apperrors.KindIntentResolution, setID, "resolved lines are not a valid entry").WithCause(err)
	}
	return lines, nil
}
