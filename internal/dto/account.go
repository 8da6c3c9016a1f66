package dto

import (
	"time"

	"github.com/SscSPs/bizledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code            string             `json:"code" binding:"required,max=32"`
	Name            string             `json:"name" binding:"required"`
	AccountType     domain.AccountType `json:"accountType" binding:"required,account_type"`
	ChartID         string             `json:"chartID"`         // defaults to "default"
	ParentAccountID *string            `json:"parentAccountID"` // Optional
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID       string             `json:"accountID"`
	ChartID         string             `json:"chartID"`
	Code            string             `json:"code"`
	Name            string             `json:"name"`
	AccountType     domain.AccountType `json:"accountType"`
	NormalBalance   domain.Side        `json:"normalBalance"`
	ParentAccountID string             `json:"parentAccountID"` // Note: Empty string if null in DB
	IsActive        bool               `json:"isActive"`
	CreatedAt       time.Time          `json:"createdAt"`
	CreatedBy       string             `json:"createdBy"`
	LastUpdatedAt   time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy   string             `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	parent := ""
	if acc.ParentAccountID != nil {
		parent = *acc.ParentAccountID
	}
	return AccountResponse{
		AccountID:       acc.AccountID,
		ChartID:         acc.ChartID,
		Code:            acc.Code,
		Name:            acc.Name,
		AccountType:     acc.AccountType,
		NormalBalance:   acc.AccountType.NormalBalance(),
		ParentAccountID: parent,
		IsActive:        acc.IsActive,
		CreatedAt:       acc.CreatedAt,
		CreatedBy:       acc.CreatedBy,
		LastUpdatedAt:   acc.LastUpdatedAt,
		LastUpdatedBy:   acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		res[i] = ToAccountResponse(&acc)
	}
	return res
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// AccountBalanceParams defines query parameters of the balance projection.
type AccountBalanceParams struct {
	AsOf               string `form:"as_of"` // YYYY-MM-DD, defaults to today
	IncludeDescendants bool   `form:"include_descendants"`
}

// AccountBalanceResponse defines the data returned for an account balance query.
type AccountBalanceResponse struct {
	AccountID          string          `json:"accountID"`
	AsOf               string          `json:"asOf"`
	IncludeDescendants bool            `json:"includeDescendants"`
	Debits             decimal.Decimal `json:"debits"`
	Credits            decimal.Decimal `json:"credits"`
	Net                decimal.Decimal `json:"net"`
	NormalBalance      domain.Side     `json:"normalBalance"`
	Balance            decimal.Decimal `json:"balance"`
}

// ToAccountBalanceResponse converts a domain.AccountBalance to its DTO.
func ToAccountBalanceResponse(b *domain.AccountBalance) AccountBalanceResponse {
	return AccountBalanceResponse{
		AccountID:          b.AccountID,
		AsOf:               b.AsOf.Format(DateLayout),
		IncludeDescendants: b.IncludeDescendants,
		Debits:             b.Debits,
		Credits:            b.Credits,
		Net:                b.Net,
		NormalBalance:      b.NormalBalance,
		Balance:            b.DisplayBalance,
	}
}
