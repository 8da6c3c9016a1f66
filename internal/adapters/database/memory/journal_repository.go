package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	"github.com/SscSPs/bizledger/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

func (s *Store) FindJournalEntryByID(_ context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[entryID]
	if !ok || entry.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return &entry, nil
}

func (s *Store) FindJournalLines(_ context.Context, entryID string) ([]domain.JournalLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.JournalLine(nil), s.lines[entryID]...), nil
}

// ListJournalEntries pages newest first by (posting date, posted at, id).
func (s *Store) ListJournalEntries(_ context.Context, tenantID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	var cursor *pagination.JournalCursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	s.mu.Lock()
	entries := make([]domain.JournalEntry, 0)
	for _, e := range s.entries {
		if e.TenantID != tenantID {
			continue
		}
		if cursor != nil && !cursor.Before(e.PostingDate, e.PostedAt, e.ID) {
			continue
		}
		entries = append(entries, e)
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.PostingDate.Equal(b.PostingDate) {
			return a.PostingDate.After(b.PostingDate)
		}
		if !a.PostedAt.Equal(b.PostedAt) {
			return a.PostedAt.After(b.PostedAt)
		}
		return a.ID > b.ID
	})

	if len(entries) <= limit {
		return entries, nil, nil
	}
	page := entries[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(pagination.JournalCursor{PostingDate: last.PostingDate, PostedAt: last.PostedAt, EntryID: last.ID})
	return page, &token, nil
}

func (s *Store) SumLinesByAccount(_ context.Context, tenantID string, accountIDs []string, asOf time.Time) ([]domain.LineTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]*domain.LineTotals, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = &domain.LineTotals{AccountID: id, Debits: decimal.Zero, Credits: decimal.Zero}
	}
	for entryID, lines := range s.lines {
		entry := s.entries[entryID]
		if entry.TenantID != tenantID || entry.PostingDate.After(asOf) {
			continue
		}
		for _, l := range lines {
			if t, ok := wanted[l.AccountID]; ok {
				t.Debits = t.Debits.Add(l.Debit)
				t.Credits = t.Credits.Add(l.Credit)
			}
		}
	}

	totals := make([]domain.LineTotals, 0, len(accountIDs))
	for _, id := range accountIDs {
		if t, ok := wanted[id]; ok {
			totals = append(totals, *t)
			delete(wanted, id)
		}
	}
	return totals, nil
}

func (s *Store) FindReversalLinkByOriginal(_ context.Context, originalEntryID string) (*domain.ReversalLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linkOf(originalEntryID)
}

func (s *Store) linkOf(originalEntryID string) (*domain.ReversalLink, error) {
	link, ok := s.linkByOriginal[originalEntryID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &link, nil
}

func (s *Store) FindReversalLinkByReversal(_ context.Context, reversalEntryID string) (*domain.ReversalLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.originalByReversal[reversalEntryID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s.linkOf(original)
}

func (s *Store) ListAuditEvents(_ context.Context, tenantID, entityType, entityID string) ([]domain.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]domain.AuditEvent, 0)
	for _, e := range s.audit {
		if e.TenantID == tenantID && e.EntityType == entityType && e.EntityID == entityID {
			events = append(events, copyEvent(e))
		}
	}
	return events, nil
}
