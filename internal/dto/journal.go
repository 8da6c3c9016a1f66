package dto

import (
	"time"

	"github.com/SscSPs/bizledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineNo      int             `json:"lineNo"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	ID                     string    `json:"id"`
	PostingDate            string    `json:"postingDate"`
	EntryDate              string    `json:"entryDate"`
	Memo                   string    `json:"memo,omitempty"`
	SourceTransactionSetID string    `json:"sourceTransactionSetID,omitempty"`
	PostedBy               string    `json:"postedBy"`
	PostedAt               time.Time `json:"postedAt"`
}

// GetJournalEntryResponse is an entry with its lines and reversal relations.
type GetJournalEntryResponse struct {
	Entry        JournalEntryResponse  `json:"entry"`
	Lines        []JournalLineResponse `json:"lines"`
	ReversedBy   *string               `json:"reversedBy,omitempty"`
	ReversalOf   *string               `json:"reversalOf,omitempty"`
	ReversalNote *string               `json:"reversalReason,omitempty"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to JournalEntryResponse DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	resp := JournalEntryResponse{
		ID:          e.ID,
		PostingDate: e.PostingDate.Format(DateLayout),
		EntryDate:   e.EntryDate.Format(DateLayout),
		PostedBy:    e.PostedByActorID,
		PostedAt:    e.PostedAt,
	}
	if e.Memo != nil {
		resp.Memo = *e.Memo
	}
	if e.SourceTransactionSetID != nil {
		resp.SourceTransactionSetID = *e.SourceTransactionSetID
	}
	return resp
}

// ToJournalLineResponses converts journal lines to their DTOs.
func ToJournalLineResponses(lines []domain.JournalLine) []JournalLineResponse {
	responses := make([]JournalLineResponse, len(lines))
	for i, l := range lines {
		responses[i] = JournalLineResponse{
			LineNo:    l.LineNo,
			AccountID: l.AccountID,
			Debit:     l.Debit,
			Credit:    l.Credit,
		}
		if l.Description != nil {
			responses[i].Description = *l.Description
		}
	}
	return responses
}

// ListJournalEntriesParams defines query parameters for listing entries.
type ListJournalEntriesParams struct {
	Limit     int    `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken string `form:"nextToken"`
}

// ListJournalEntriesResponse wraps a page of entries.
type ListJournalEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// ReverseJournalEntryRequest asks for the reversal of a posted entry.
type ReverseJournalEntryRequest struct {
	Reason      string  `json:"reason" binding:"required"`
	PostingDate *string `json:"postingDate" binding:"omitempty,datetime=2006-01-02"`
}

// ReverseJournalEntryResponse is returned by a successful reversal.
type ReverseJournalEntryResponse struct {
	ReversalJournalEntryID string `json:"reversalJournalEntryID"`
}
