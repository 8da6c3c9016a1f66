package services

import (
	"github.com/SscSPs/bizledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/platform/config"
	"github.com/SscSPs/bizledger/internal/platform/metrics"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, rules domain.PostingRules, rec metrics.Recorder) *portssvc.ServiceContainer {
	opts := []ServiceOption{WithMetrics(rec)}

	container := &portssvc.ServiceContainer{}

	// The chart is shared: the intent resolver and balance projection read it through the cache.
	container.Chart = NewChartService(repos.AccountRepo, cfg.ChartCacheTTL, opts...)
	container.Balance = NewBalanceService(repos.JournalRepo, container.Chart, opts...)

	container.TransactionSet = NewTransactionSetService(repos.TransactionSetRepo, repos.PostingRunRepo, opts...)
	container.Intent = NewIntentService(repos.TransactionSetRepo, repos.IntentRepo, container.Chart, rules, opts...)
	container.Approval = NewApprovalService(repos.ApprovalRepo, repos.TransactionSetRepo, opts...)

	container.Kernel = NewPostingKernel(
		repos.TransactionSetRepo,
		repos.IntentRepo,
		repos.PostingRunRepo,
		container.Approval,
		repos.UnitOfWork,
		opts...,
	)
	container.Reversal = NewReversalService(repos.JournalRepo, repos.UnitOfWork, opts...)
	container.Journal = NewJournalService(repos.JournalRepo, opts...)
	container.Operator = NewOperatorService(repos.PostingRunRepo, repos.UnitOfWork, opts...)

	return container
}
