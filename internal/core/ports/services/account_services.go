package services

import (
	"context"
	"time"

	"github.com/SscSPs/bizledger/internal/core/domain"
	"github.com/SscSPs/bizledger/internal/dto"
)

// ChartReaderSvc defines read operations on the chart of accounts
type ChartReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error)

	// ListAccounts retrieves every account of the tenant.
	ListAccounts(ctx context.Context, tenantID string) ([]domain.Account, error)

	// LoadChart returns the indexed chart of the tenant.
	LoadChart(ctx context.Context, tenantID string) (*domain.Chart, error)
}

// ChartWriterSvc defines write operations on the chart of accounts
type ChartWriterSvc interface {
	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, actorID string) (*domain.Account, error)

	// DeactivateAccount marks an account as inactive so it can no longer receive postings.
	DeactivateAccount(ctx context.Context, tenantID, accountID, actorID string) error

	// DeleteAccount removes an account no journal line references.
	DeleteAccount(ctx context.Context, tenantID, accountID, actorID string) error
}

// ChartSvcFacade combines all chart-of-accounts service interfaces
type ChartSvcFacade interface {
	ChartReaderSvc
	ChartWriterSvc
}

// BalanceSvc projects journal lines onto accounts.
type BalanceSvc interface {
	// AccountBalance returns the balance of the account (and optionally its subtree) as of the given date.
	AccountBalance(ctx context.Context, tenantID, accountID string, asOf time.Time, includeDescendants bool) (*domain.AccountBalance, error)
}
