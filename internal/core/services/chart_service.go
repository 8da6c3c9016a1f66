package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/dto"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const defaultChartID = "default"

// chartService implements the ChartSvcFacade interface. Loaded charts are cached per tenant
// and dropped on every write of that tenant.
type chartService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	charts      *cache.Cache
}

// NewChartService creates a new chart-of-accounts service. A cacheTTL of zero disables caching.
func NewChartService(repo portsrepo.AccountRepositoryFacade, cacheTTL time.Duration, opts ...ServiceOption) portssvc.ChartSvcFacade {
	svc := &chartService{
		BaseService: newBaseService(opts...),
		accountRepo: repo,
	}
	if cacheTTL > 0 {
		svc.charts = cache.New(cacheTTL, 2*cacheTTL)
	}
	return svc
}

var _ portssvc.ChartSvcFacade = (*chartService)(nil)

func (s *chartService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, actorID string) (*domain.Account, error) {
	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, req.AccountType)
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: account code is required", apperrors.ErrValidation)
	}
	chartID := req.ChartID
	if chartID == "" {
		chartID = defaultChartID
	}

	if req.ParentAccountID != nil {
		parent, err := s.accountRepo.FindAccountByID(ctx, tenantID, *req.ParentAccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent account %s not found", apperrors.ErrValidation, *req.ParentAccountID)
			}
			s.LogError(ctx, err, "Failed to find parent account", slog.String("parent_id", *req.ParentAccountID))
			return nil, err
		}
		if parent.ChartID != chartID {
			return nil, fmt.Errorf("%w: parent account belongs to chart %s", apperrors.ErrValidation, parent.ChartID)
		}
	}

	now := s.Now()
	account := domain.Account{
		AccountID:       uuid.NewString(),
		TenantID:        tenantID,
		ChartID:         chartID,
		Code:            code,
		Name:            req.Name,
		AccountType:     req.AccountType,
		ParentAccountID: req.ParentAccountID,
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save account", slog.String("code", code))
		}
		return nil, err
	}
	s.invalidate(tenantID)

	s.LogInfo(ctx, "Account created", slog.String("account_id", account.AccountID), slog.String("code", code))
	return &account, nil
}

func (s *chartService) GetAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

func (s *chartService) ListAccounts(ctx context.Context, tenantID string) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, tenantID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, err
	}
	return accounts, nil
}

func (s *chartService) LoadChart(ctx context.Context, tenantID string) (*domain.Chart, error) {
	if s.charts != nil {
		if cached, ok := s.charts.Get(tenantID); ok {
			return cached.(*domain.Chart), nil
		}
	}

	accounts, err := s.ListAccounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	chart := domain.NewChart(tenantID, accounts)
	if s.charts != nil {
		s.charts.SetDefault(tenantID, chart)
	}
	return chart, nil
}

func (s *chartService) DeactivateAccount(ctx context.Context, tenantID, accountID, actorID string) error {
	if _, err := s.GetAccountByID(ctx, tenantID, accountID); err != nil {
		return err
	}
	if err := s.accountRepo.DeactivateAccount(ctx, tenantID, accountID, actorID, s.Now()); err != nil {
		s.LogError(ctx, err, "Failed to deactivate account", slog.String("account_id", accountID))
		return err
	}
	s.invalidate(tenantID)
	s.LogInfo(ctx, "Account deactivated", slog.String("account_id", accountID))
	return nil
}

func (s *chartService) DeleteAccount(ctx context.Context, tenantID, accountID, actorID string) error {
	if _, err := s.GetAccountByID(ctx, tenantID, accountID); err != nil {
		return err
	}

	referenced, err := s.accountRepo.IsAccountReferenced(ctx, tenantID, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to check account references", slog.String("account_id", accountID))
		return err
	}
	if referenced {
		return ErrAccountReferenced
	}

	accounts, err := s.ListAccounts(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, acc := range accounts {
		if acc.ParentAccountID != nil && *acc.ParentAccountID == accountID {
			return ErrAccountHasChildren
		}
	}

	if err := s.accountRepo.DeleteAccount(ctx, tenantID, accountID); err != nil {
		s.LogError(ctx, err, "Failed to delete account", slog.String("account_id", accountID))
		return err
	}
	s.invalidate(tenantID)
	s.LogInfo(ctx, "Account deleted", slog.String("account_id", accountID), slog.String("actor_id", actorID))
	return nil
}

func (s *chartService) invalidate(tenantID string) {
	if s.charts != nil {
		s.charts.Delete(tenantID)
	}
}
