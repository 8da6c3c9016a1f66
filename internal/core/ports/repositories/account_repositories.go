package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bizledger/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves an account of the tenant by its id.
	FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error)

	// FindAccountByCode retrieves an account by its tenant-unique code.
	FindAccountByCode(ctx context.Context, tenantID, code string) (*domain.Account, error)

	// ListAccounts returns every account of the tenant ordered by code.
	ListAccounts(ctx context.Context, tenantID string) ([]domain.Account, error)

	// IsAccountReferenced reports whether any journal line points at the account.
	IsAccountReferenced(ctx context.Context, tenantID, accountID string) (bool, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account. A code clash returns apperrors.ErrDuplicate.
	SaveAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, tenantID, accountID, actorID string, now time.Time) error

	// DeleteAccount removes an account that no journal line references.
	DeleteAccount(ctx context.Context, tenantID, accountID string) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
