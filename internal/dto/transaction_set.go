package dto

import (
	"time"

	"github.com/SscSPs/bizledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// CreateTransactionSetRequest opens a new DRAFT set.
type CreateTransactionSetRequest struct {
	Source       domain.TransactionSetSource `json:"source" binding:"omitempty,oneof=WEB API CONNECTOR CSV"`
	BusinessDate *string                     `json:"businessDate" binding:"omitempty,datetime=2006-01-02"`
}

// BusinessTransactionLineRequest is one line of a business transaction.
type BusinessTransactionLineRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
	TaxCode     string          `json:"taxCode"`
	TaxAmount   decimal.Decimal `json:"taxAmount" binding:"decimal_gte0"`
}

// AddBusinessTransactionRequest adds a fact to a DRAFT set.
type AddBusinessTransactionRequest struct {
	Type  string                           `json:"type" binding:"required"`
	Memo  string                           `json:"memo"`
	Lines []BusinessTransactionLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// BusinessTransactionResponse mirrors domain.BusinessTransaction.
type BusinessTransactionResponse struct {
	ID    string                           `json:"id"`
	Type  string                           `json:"type"`
	Memo  string                           `json:"memo"`
	Lines []domain.BusinessTransactionLine `json:"lines"`
}

// PostingRunResponse mirrors domain.PostingRun.
type PostingRunResponse struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	JournalEntryID *string    `json:"journalEntryID,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	Error          *string    `json:"error,omitempty"`
}

// TransactionSetResponse is a set with its business transactions and posting run, if any.
type TransactionSetResponse struct {
	ID                   string                        `json:"id"`
	Status               domain.TransactionSetStatus   `json:"status"`
	Source               domain.TransactionSetSource   `json:"source"`
	BusinessDate         *string                       `json:"businessDate,omitempty"`
	Version              int64                         `json:"version"`
	CreatedBy            string                        `json:"createdBy"`
	CreatedAt            time.Time                     `json:"createdAt"`
	BusinessTransactions []BusinessTransactionResponse `json:"businessTransactions"`
	PostingRun           *PostingRunResponse           `json:"postingRun,omitempty"`
}

// ToTransactionSetResponse builds the response of a set; run may be nil.
func ToTransactionSetResponse(set *domain.TransactionSet, bts []domain.BusinessTransaction, run *domain.PostingRun) TransactionSetResponse {
	resp := TransactionSetResponse{
		ID:                   set.ID,
		Status:               set.Status,
		Source:               set.Source,
		Version:              set.Version,
		CreatedBy:            set.CreatedByActorID,
		CreatedAt:            set.CreatedAt,
		BusinessTransactions: make([]BusinessTransactionResponse, len(bts)),
	}
	if set.BusinessDate != nil {
		d := set.BusinessDate.Format(DateLayout)
		resp.BusinessDate = &d
	}
	for i, bt := range bts {
		resp.BusinessTransactions[i] = ToBusinessTransactionResponse(&bt)
	}
	if run != nil {
		resp.PostingRun = &PostingRunResponse{
			ID:             run.ID,
			Status:         string(run.Status),
			JournalEntryID: run.JournalEntryID,
			StartedAt:      run.StartedAt,
			FinishedAt:     run.FinishedAt,
			Error:          run.Error,
		}
	}
	return resp
}

// ToBusinessTransactionResponse converts a domain.BusinessTransaction to its DTO.
func ToBusinessTransactionResponse(bt *domain.BusinessTransaction) BusinessTransactionResponse {
	return BusinessTransactionResponse{ID: bt.ID, Type: bt.Type, Memo: bt.Memo, Lines: bt.Lines}
}

// PostingIntentResponse mirrors domain.PostingIntent.
type PostingIntentResponse struct {
	ID          string              `json:"id"`
	SetVersion  int64               `json:"setVersion"`
	ContentHash string              `json:"contentHash"`
	Lines       []domain.IntentLine `json:"lines"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// ToPostingIntentResponse converts a domain.PostingIntent to its DTO.
func ToPostingIntentResponse(intent *domain.PostingIntent) PostingIntentResponse {
	return PostingIntentResponse{
		ID:          intent.ID,
		SetVersion:  intent.SetVersion,
		ContentHash: intent.ContentHash,
		Lines:       intent.Lines,
		CreatedAt:   intent.CreatedAt,
	}
}

// PostResponse is returned by a successful post.
type PostResponse struct {
	JournalEntryID string `json:"journalEntryID"`
}

// IntentLineRequest is one line of an externally computed posting intent.
type IntentLineRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Side        domain.Side     `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	Amount      decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Description string          `json:"description"`
}

// RecordIntentRequest carries lines of an external resolver. An empty body resolves with the posting rules.
type RecordIntentRequest struct {
	Lines []IntentLineRequest `json:"lines" binding:"omitempty,dive"`
}

// ToIntentLines converts the request lines to domain lines.
func (r RecordIntentRequest) ToIntentLines() []domain.IntentLine {
	lines := make([]domain.IntentLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = domain.IntentLine{AccountID: l.AccountID, Side: l.Side, Amount: l.Amount, Description: l.Description}
	}
	return lines
}
