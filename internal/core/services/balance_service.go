package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/bizledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
)

type balanceService struct {
	BaseService
	journalRepo portsrepo.JournalReader
	chart       portssvc.ChartReaderSvc
}

// NewBalanceService creates the read-only balance projection.
func NewBalanceService(journalRepo portsrepo.JournalReader, chart portssvc.ChartReaderSvc, opts ...ServiceOption) portssvc.BalanceSvc {
	return &balanceService{
		BaseService: newBaseService(opts...),
		journalRepo: journalRepo,
		chart:       chart,
	}
}

var _ portssvc.BalanceSvc = (*balanceService)(nil)

func (s *balanceService) AccountBalance(ctx context.Context, tenantID, accountID string, asOf time.Time, includeDescendants bool) (*domain.AccountBalance, error) {
	account, err := s.chart.GetAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	ids := []string{accountID}
	if includeDescendants {
		chart, err := s.chart.LoadChart(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		ids = chart.Descendants(accountID)
	}

	asOf = dateOnly(asOf)
	totals, err := s.journalRepo.SumLinesByAccount(ctx, tenantID, ids, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum journal lines", slog.String("account_id", accountID))
		return nil, err
	}

	balance := domain.NewAccountBalance(tenantID, accountID, asOf, includeDescendants, account.AccountType.NormalBalance(), totals)
	return &balance, nil
}
