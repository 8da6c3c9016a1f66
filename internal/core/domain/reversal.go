package domain

import "time"

// ReversalLink ties an original journal entry to the entry that reverses it.
// An entry can be the original of at most one link.
type ReversalLink struct {
	ID                     string    `json:"id"`
	OriginalJournalEntryID string    `json:"originalJournalEntryID"`
	ReversalJournalEntryID string    `json:"reversalJournalEntryID"`
	Reason                 string    `json:"reason"`
	CreatedByActorID       string    `json:"createdByActorID"`
	CreatedAt              time.Time `json:"createdAt"`
}

// ReversalMemo builds the memo of a reversal entry from the original memo.
func ReversalMemo(original *string) string {
	if original == nil || *original == "" {
		return "Reversal"
	}
	return "Reversal of " + *original
}
