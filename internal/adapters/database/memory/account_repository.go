package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
)

func (s *Store) FindAccountByID(_ context.Context, tenantID, accountID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok || acc.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return &acc, nil
}

func (s *Store) FindAccountByCode(_ context.Context, tenantID, code string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if acc.TenantID == tenantID && acc.Code == code {
			return &acc, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) ListAccounts(_ context.Context, tenantID string) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make([]domain.Account, 0)
	for _, acc := range s.accounts {
		if acc.TenantID == tenantID {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
	return accounts, nil
}

func (s *Store) IsAccountReferenced(_ context.Context, tenantID, accountID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for entryID, lines := range s.lines {
		if s.entries[entryID].TenantID != tenantID {
			continue
		}
		for _, l := range lines {
			if l.AccountID == accountID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Store) SaveAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.AccountID]; exists {
		return apperrors.ErrDuplicate
	}
	for _, acc := range s.accounts {
		if acc.TenantID == account.TenantID && acc.Code == account.Code {
			return apperrors.ErrDuplicate
		}
	}
	s.accounts[account.AccountID] = account
	return nil
}

func (s *Store) DeactivateAccount(_ context.Context, tenantID, accountID, actorID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok || acc.TenantID != tenantID {
		return apperrors.ErrNotFound
	}
	acc.IsActive = false
	acc.LastUpdatedAt = now
	acc.LastUpdatedBy = actorID
	s.accounts[accountID] = acc
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, tenantID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok || acc.TenantID != tenantID {
		return apperrors.ErrNotFound
	}
	for _, lines := range s.lines {
		for _, l := range lines {
			if l.AccountID == accountID {
				return apperrors.ErrImmutable
			}
		}
	}
	delete(s.accounts, accountID)
	return nil
}
