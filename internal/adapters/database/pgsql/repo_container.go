package pgsql

import (
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	setRepo := newPgxTransactionSetRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:        newPgxAccountRepository(dbPool),
		TransactionSetRepo: setRepo,
		IntentRepo:         setRepo,
		ApprovalRepo:       newPgxApprovalRepository(dbPool),
		PostingRunRepo:     newPgxPostingRunRepository(dbPool),
		JournalRepo:        newPgxJournalRepository(dbPool),
		UnitOfWork:         newPgxUnitOfWork(dbPool),
	}
}
