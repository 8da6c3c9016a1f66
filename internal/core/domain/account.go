package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset           AccountType = "ASSET"
	Liability       AccountType = "LIABILITY"
	Equity          AccountType = "EQUITY"
	Income          AccountType = "INCOME"
	Expense         AccountType = "EXPENSE"
	ContraAsset     AccountType = "CONTRA_ASSET"
	ContraLiability AccountType = "CONTRA_LIABILITY"
	ContraEquity    AccountType = "CONTRA_EQUITY"
	ContraIncome    AccountType = "CONTRA_INCOME"
	ContraExpense   AccountType = "CONTRA_EXPENSE"
)

// AccountTypes lists every supported account type.
var AccountTypes = []AccountType{
	Asset, Liability, Equity, Income, Expense,
	ContraAsset, ContraLiability, ContraEquity, ContraIncome, ContraExpense,
}

// IsValid reports whether t is one of the supported account types.
func (t AccountType) IsValid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

// NormalBalance returns the side on which the account type naturally carries its balance.
// It is used for display only; posting validation never looks at it.
func (t AccountType) NormalBalance() Side {
	switch t {
	case Asset, Expense, ContraLiability, ContraEquity, ContraIncome:
		return Debit
	default:
		return Credit
	}
}

// Account represents a ledger account within a tenant's chart of accounts.
type Account struct {
	AccountID       string      `json:"accountID"`
	TenantID        string      `json:"tenantID"`
	ChartID         string      `json:"chartID"`
	Code            string      `json:"code"` // unique per tenant
	Name            string      `json:"name"`
	AccountType     AccountType `json:"accountType"`
	ParentAccountID *string     `json:"parentAccountID,omitempty"`
	IsActive        bool        `json:"isActive"`
	AuditFields
}

// Chart is an in-memory view of a tenant's accounts, indexed for lookups.
type Chart struct {
	TenantID string
	byID     map[string]Account
	byCode   map[string]Account
}

// NewChart indexes the given accounts.
func NewChart(tenantID string, accounts []Account) *Chart {
	c := &Chart{
		TenantID: tenantID,
		byID:     make(map[string]Account, len(accounts)),
		byCode:   make(map[string]Account, len(accounts)),
	}
	for _, acc := range accounts {
		c.byID[acc.AccountID] = acc
		c.byCode[acc.Code] = acc
	}
	return c
}

// ByID looks up an account by id.
func (c *Chart) ByID(id string) (Account, bool) {
	acc, ok := c.byID[id]
	return acc, ok
}

// ByCode looks up an account by its tenant-unique code.
func (c *Chart) ByCode(code string) (Account, bool) {
	acc, ok := c.byCode[code]
	return acc, ok
}

// Descendants returns the ids of every account below rootID in the tree, rootID included.
func (c *Chart) Descendants(rootID string) []string {
	children := make(map[string][]string, len(c.byID))
	for _, acc := range c.byID {
		if acc.ParentAccountID != nil {
			children[*acc.ParentAccountID] = append(children[*acc.ParentAccountID], acc.AccountID)
		}
	}

	ids := []string{rootID}
	seen := map[string]bool{rootID: true}
	for i := 0; i < len(ids); i++ {
		for _, child := range children[ids[i]] {
			if !seen[child] {
				seen[child] = true
				ids = append(ids, child)
			}
		}
	}
	return ids
}
