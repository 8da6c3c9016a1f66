package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
)

func (s *Store) CreatePostingRun(_ context.Context, run domain.PostingRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := setKey(run.TenantID, run.TransactionSetID)
	if _, exists := s.runBySet[key]; exists {
		return apperrors.ErrDuplicate
	}
	s.runs[run.ID] = run
	s.runBySet[key] = run.ID
	return nil
}

func (s *Store) FindPostingRunBySet(_ context.Context, tenantID, setID string) (*domain.PostingRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID, ok := s.runBySet[setKey(tenantID, setID)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	run := s.runs[runID]
	return &run, nil
}

func (s *Store) MarkPostingRunFailed(_ context.Context, runID, errMsg string, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failRun(runID, errMsg, finishedAt)
}

func (s *Store) failRun(runID, errMsg string, finishedAt time.Time) error {
	run, ok := s.runs[runID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if run.Status != domain.RunStarted {
		return apperrors.ErrConflict
	}
	run.Status = domain.RunFailed
	run.FinishedAt = &finishedAt
	run.Error = &errMsg
	s.runs[runID] = run
	return nil
}

func (s *Store) ListStuckPostingRuns(_ context.Context, startedBefore time.Time) ([]domain.PostingRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make([]domain.PostingRun, 0)
	for _, run := range s.runs {
		if run.Status == domain.RunStarted && run.StartedAt.Before(startedBefore) {
			runs = append(runs, run)
		}
	}
	return runs, nil
}

// RunInTx holds the store lock for the whole unit. Every write of the unit registers an undo
// step; a failing fn has them replayed in reverse order before the lock is released.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.PostingTx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	if err = fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	if err = ctx.Err(); err != nil {
		tx.rollback()
		return fmt.Errorf("commit aborted: %w", err)
	}
	return nil
}

// memTx implements PostingTx on a locked store. Its methods must not call the locking Store methods.
type memTx struct {
	s    *Store
	undo []func()
}

var _ portsrepo.PostingTx = (*memTx)(nil)

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) LockTransactionSet(_ context.Context, tenantID, setID string) (*domain.TransactionSet, error) {
	return t.s.findSet(tenantID, setID)
}

func (t *memTx) FindAccountsByIDs(_ context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	found := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if acc, ok := t.s.accounts[id]; ok && acc.TenantID == tenantID {
			found[id] = acc
		}
	}
	return found, nil
}

func (t *memTx) InsertJournalEntry(_ context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	if _, exists := t.s.entries[entry.ID]; exists {
		return apperrors.ErrDuplicate
	}
	t.s.entries[entry.ID] = entry
	t.s.lines[entry.ID] = append([]domain.JournalLine(nil), lines...)
	t.undo = append(t.undo, func() {
		delete(t.s.entries, entry.ID)
		delete(t.s.lines, entry.ID)
	})
	return nil
}

func (t *memTx) MarkTransactionSetPosted(_ context.Context, tenantID, setID, actorID string, now time.Time) error {
	set, err := t.s.findSet(tenantID, setID)
	if err != nil {
		return err
	}
	if set.Status != domain.SetReview {
		return apperrors.ErrConflict
	}
	previous := *set
	set.Status = domain.SetPosted
	set.LastUpdatedAt = now
	set.LastUpdatedBy = actorID
	t.s.sets[setID] = *set
	t.undo = append(t.undo, func() { t.s.sets[setID] = previous })
	return nil
}

func (t *memTx) MarkPostingRunSucceeded(_ context.Context, runID, entryID string, finishedAt time.Time) error {
	run, ok := t.s.runs[runID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if run.Status != domain.RunStarted {
		return apperrors.ErrConflict
	}
	previous := run
	run.Status = domain.RunSucceeded
	run.JournalEntryID = &entryID
	run.FinishedAt = &finishedAt
	t.s.runs[runID] = run
	t.undo = append(t.undo, func() { t.s.runs[runID] = previous })
	return nil
}

func (t *memTx) MarkPostingRunFailed(_ context.Context, runID, errMsg string, finishedAt time.Time) error {
	previous, ok := t.s.runs[runID]
	if err := t.s.failRun(runID, errMsg, finishedAt); err != nil {
		return err
	}
	if ok {
		t.undo = append(t.undo, func() { t.s.runs[runID] = previous })
	}
	return nil
}

func (t *memTx) DeleteFailedPostingRun(_ context.Context, runID string) error {
	run, ok := t.s.runs[runID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if run.Status != domain.RunFailed {
		return apperrors.ErrConflict
	}
	key := setKey(run.TenantID, run.TransactionSetID)
	delete(t.s.runs, runID)
	delete(t.s.runBySet, key)
	t.undo = append(t.undo, func() {
		t.s.runs[runID] = run
		t.s.runBySet[key] = runID
	})
	return nil
}

func (t *memTx) FindReversalLinkByOriginal(_ context.Context, originalEntryID string) (*domain.ReversalLink, error) {
	return t.s.linkOf(originalEntryID)
}

func (t *memTx) InsertReversalLink(_ context.Context, link domain.ReversalLink) error {
	if _, exists := t.s.linkByOriginal[link.OriginalJournalEntryID]; exists {
		return apperrors.ErrDuplicate
	}
	t.s.linkByOriginal[link.OriginalJournalEntryID] = link
	t.s.originalByReversal[link.ReversalJournalEntryID] = link.OriginalJournalEntryID
	t.undo = append(t.undo, func() {
		delete(t.s.linkByOriginal, link.OriginalJournalEntryID)
		delete(t.s.originalByReversal, link.ReversalJournalEntryID)
	})
	return nil
}

func (t *memTx) InsertAuditEvent(_ context.Context, event domain.AuditEvent) error {
	n := len(t.s.audit)
	t.s.audit = append(t.s.audit, copyEvent(event))
	t.undo = append(t.undo, func() { t.s.audit = t.s.audit[:n] })
	return nil
}
