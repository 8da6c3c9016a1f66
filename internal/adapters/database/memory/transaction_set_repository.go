package memory

import (
	"context"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
)

func (s *Store) FindTransactionSetByID(_ context.Context, tenantID, setID string) (*domain.TransactionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findSet(tenantID, setID)
}

func (s *Store) findSet(tenantID, setID string) (*domain.TransactionSet, error) {
	set, ok := s.sets[setID]
	if !ok || set.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return &set, nil
}

func (s *Store) ListBusinessTransactions(_ context.Context, tenantID, setID string) ([]domain.BusinessTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.findSet(tenantID, setID); err != nil {
		return nil, err
	}
	bts := make([]domain.BusinessTransaction, len(s.bts[setID]))
	for i, bt := range s.bts[setID] {
		bts[i] = copyBT(bt)
	}
	return bts, nil
}

func (s *Store) SaveTransactionSet(_ context.Context, set domain.TransactionSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sets[set.ID]; exists {
		return apperrors.ErrDuplicate
	}
	s.sets[set.ID] = set
	return nil
}

func (s *Store) AddBusinessTransaction(_ context.Context, tenantID string, bt domain.BusinessTransaction, actorID string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.findSet(tenantID, bt.TransactionSetID)
	if err != nil {
		return 0, err
	}
	if set.Status != domain.SetDraft {
		return 0, apperrors.ErrConflict
	}
	s.bts[set.ID] = append(s.bts[set.ID], copyBT(bt))
	return s.bump(*set, actorID, now), nil
}

func (s *Store) RemoveBusinessTransaction(_ context.Context, tenantID, setID, btID, actorID string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.findSet(tenantID, setID)
	if err != nil {
		return 0, err
	}
	if set.Status != domain.SetDraft {
		return 0, apperrors.ErrConflict
	}

	bts := s.bts[setID]
	for i, bt := range bts {
		if bt.ID == btID {
			s.bts[setID] = append(bts[:i:i], bts[i+1:]...)
			return s.bump(*set, actorID, now), nil
		}
	}
	return 0, apperrors.ErrNotFound
}

func (s *Store) bump(set domain.TransactionSet, actorID string, now time.Time) int64 {
	set.Version++
	set.LastUpdatedAt = now
	set.LastUpdatedBy = actorID
	s.sets[set.ID] = set
	return set.Version
}

func (s *Store) UpdateTransactionSetStatus(_ context.Context, tenantID, setID string, from, to domain.TransactionSetStatus, actorID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.findSet(tenantID, setID)
	if err != nil {
		return err
	}
	if set.Status != from {
		return apperrors.ErrConflict
	}
	set.Status = to
	set.LastUpdatedAt = now
	set.LastUpdatedBy = actorID
	s.sets[setID] = *set
	return nil
}

func (s *Store) SavePostingIntent(_ context.Context, tenantID string, intent domain.PostingIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.findSet(tenantID, intent.TransactionSetID); err != nil {
		return err
	}
	s.intents[intent.TransactionSetID] = append(s.intents[intent.TransactionSetID], copyIntent(intent))
	return nil
}

func (s *Store) FindLatestPostingIntent(_ context.Context, tenantID, setID string) (*domain.PostingIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.findSet(tenantID, setID); err != nil {
		return nil, err
	}
	intents := s.intents[setID]
	if len(intents) == 0 {
		return nil, apperrors.ErrNotFound
	}
	latest := copyIntent(intents[len(intents)-1])
	return &latest, nil
}

func (s *Store) SaveApproval(_ context.Context, approval domain.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals = append(s.approvals, approval)
	return nil
}

func (s *Store) FindApprovalByID(_ context.Context, tenantID, approvalID string) (*domain.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.approvals {
		if a.ID == approvalID && a.TenantID == tenantID {
			return &a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) FindLatestApproval(_ context.Context, tenantID, entityType, entityID string) (*domain.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.approvals) - 1; i >= 0; i-- {
		a := s.approvals[i]
		if a.TenantID == tenantID && a.EntityType == entityType && a.EntityID == entityID {
			return &a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) DecideApproval(_ context.Context, tenantID, approvalID string, status domain.ApprovalStatus, deciderID string, decidedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.approvals {
		if a.ID != approvalID || a.TenantID != tenantID {
			continue
		}
		if a.Status != domain.ApprovalPending {
			return apperrors.ErrConflict
		}
		a.Status = status
		a.DecidedByUserID = &deciderID
		a.DecidedAt = &decidedAt
		s.approvals[i] = a
		return nil
	}
	return apperrors.ErrNotFound
}
