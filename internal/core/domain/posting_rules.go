package domain

import "time"

// PostingRule maps a business transaction type to the account codes it debits and credits.
// Tax amounts are posted to the account configured for the line's tax code on TaxSide,
// balanced against the rule account on the other side.
type PostingRule struct {
	Type              string     `mapstructure:"type" json:"type"`
	DebitAccountCode  string     `mapstructure:"debit" json:"debit"`
	CreditAccountCode string     `mapstructure:"credit" json:"credit"`
	TaxSide           Side       `mapstructure:"tax_side" json:"taxSide"`
	EffectiveFrom     *time.Time `mapstructure:"effective_from" json:"effectiveFrom,omitempty"`
	EffectiveTo       *time.Time `mapstructure:"effective_to" json:"effectiveTo,omitempty"`
}

// AppliesOn reports whether the rule is in effect on day.
func (r PostingRule) AppliesOn(day time.Time) bool {
	if r.EffectiveFrom != nil && day.Before(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && !day.Before(*r.EffectiveTo) {
		return false
	}
	return true
}

// PostingRules is the rule book consulted by the intent resolver.
type PostingRules struct {
	Rules       []PostingRule     `mapstructure:"rules" json:"rules"`
	TaxAccounts map[string]string `mapstructure:"tax_accounts" json:"taxAccounts"` // tax code -> account code
}

// RuleFor returns the first rule for txType in effect on day.
func (p PostingRules) RuleFor(txType string, day time.Time) (PostingRule, bool) {
	for _, r := range p.Rules {
		if r.Type == txType && r.AppliesOn(day) {
			return r, true
		}
	}
	return PostingRule{}, false
}

// DefaultPostingRules is used when no rules file is configured.
func DefaultPostingRules() PostingRules {
	return PostingRules{
		Rules: []PostingRule{
			{Type: "cash_sale", DebitAccountCode: "1000", CreditAccountCode: "4000", TaxSide: Credit},
			{Type: "credit_sale", DebitAccountCode: "1100", CreditAccountCode: "4000", TaxSide: Credit},
			{Type: "customer_payment", DebitAccountCode: "1000", CreditAccountCode: "1100", TaxSide: Credit},
			{Type: "purchase", DebitAccountCode: "5000", CreditAccountCode: "2000", TaxSide: Debit},
			{Type: "supplier_payment", DebitAccountCode: "2000", CreditAccountCode: "1000", TaxSide: Debit},
			{Type: "owner_contribution", DebitAccountCode: "1000", CreditAccountCode: "3000", TaxSide: Credit},
		},
		TaxAccounts: map[string]string{
			"VAT_OUT": "2100",
			"VAT_IN":  "1200",
		},
	}
}
