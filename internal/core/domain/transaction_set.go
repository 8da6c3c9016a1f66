package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionSetStatus is the lifecycle state of a transaction set.
type TransactionSetStatus string

const (
	SetDraft  TransactionSetStatus = "DRAFT"
	SetReview TransactionSetStatus = "REVIEW"
	SetPosted TransactionSetStatus = "POSTED"
)

// TransactionSetSource records where a set was taken in from.
type TransactionSetSource string

const (
	SourceWeb       TransactionSetSource = "WEB"
	SourceAPI       TransactionSetSource = "API"
	SourceConnector TransactionSetSource = "CONNECTOR"
	SourceCSV       TransactionSetSource = "CSV"
)

// TransactionSet is the mutable draft container of business facts prior to posting.
// Version increases on every change to its business transactions.
type TransactionSet struct {
	ID               string               `json:"id"`
	TenantID         string               `json:"tenantID"`
	Status           TransactionSetStatus `json:"status"`
	Source           TransactionSetSource `json:"source"`
	BusinessDate     *time.Time           `json:"businessDate,omitempty"`
	Version          int64                `json:"version"`
	CreatedByActorID string               `json:"createdByActorID"`
	AuditFields
}

// IsEditable reports whether business transactions may still be added or removed.
func (s TransactionSet) IsEditable() bool {
	return s.Status == SetDraft
}

// BusinessTransaction is one raw, human-entered fact inside a set.
type BusinessTransaction struct {
	ID               string                    `json:"id"`
	TransactionSetID string                    `json:"transactionSetID"`
	Type             string                    `json:"type"`
	Memo             string                    `json:"memo"`
	Lines            []BusinessTransactionLine `json:"lines"`
	CreatedAt        time.Time                 `json:"createdAt"`
}

// BusinessTransactionLine holds quantities and amounts of a business transaction.
// TaxAmount is computed upstream; TaxCode only routes it to an account.
type BusinessTransactionLine struct {
	LineNo      int             `json:"lineNo"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
	TaxCode     string          `json:"taxCode,omitempty"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
}

// NetAmount is Amount when given, otherwise Quantity x UnitPrice.
func (l BusinessTransactionLine) NetAmount() decimal.Decimal {
	if !l.Amount.IsZero() {
		return l.Amount
	}
	return l.Quantity.Mul(l.UnitPrice)
}
