package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	AccountRepo        AccountRepositoryFacade
	TransactionSetRepo TransactionSetRepositoryFacade
	IntentRepo         PostingIntentRepository
	ApprovalRepo       ApprovalRepository
	PostingRunRepo     PostingRunRepository
	JournalRepo        JournalRepositoryFacade
	UnitOfWork         UnitOfWork
}
