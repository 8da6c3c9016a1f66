// Package memory is an in-process implementation of the repository ports. It backs the
// development storage driver and the kernel tests.
package memory

import (
	"sync"

	"github.com/SscSPs/bizledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
)

// Store holds all state behind one mutex. RunInTx keeps the mutex for the whole unit, so a unit
// is serialized against every other read and write. Values handed out are copies; journal
// entries, lines and reversal links have no update or delete path.
type Store struct {
	mu sync.Mutex

	accounts map[string]domain.Account // by account id

	sets      map[string]domain.TransactionSet        // by set id
	bts       map[string][]domain.BusinessTransaction // by set id
	intents   map[string][]domain.PostingIntent       // by set id, append order
	approvals []domain.Approval                       // append order

	runs     map[string]domain.PostingRun // by run id
	runBySet map[string]string            // tenant|set -> run id

	entries            map[string]domain.JournalEntry
	lines              map[string][]domain.JournalLine // by entry id
	linkByOriginal     map[string]domain.ReversalLink
	originalByReversal map[string]string
	audit              []domain.AuditEvent
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:           make(map[string]domain.Account),
		sets:               make(map[string]domain.TransactionSet),
		bts:                make(map[string][]domain.BusinessTransaction),
		intents:            make(map[string][]domain.PostingIntent),
		runs:               make(map[string]domain.PostingRun),
		runBySet:           make(map[string]string),
		entries:            make(map[string]domain.JournalEntry),
		lines:              make(map[string][]domain.JournalLine),
		linkByOriginal:     make(map[string]domain.ReversalLink),
		originalByReversal: make(map[string]string),
	}
}

// Provider exposes the store through every repository port.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:        s,
		TransactionSetRepo: s,
		IntentRepo:         s,
		ApprovalRepo:       s,
		PostingRunRepo:     s,
		JournalRepo:        s,
		UnitOfWork:         s,
	}
}

var (
	_ portsrepo.AccountRepositoryFacade        = (*Store)(nil)
	_ portsrepo.TransactionSetRepositoryFacade = (*Store)(nil)
	_ portsrepo.PostingIntentRepository        = (*Store)(nil)
	_ portsrepo.ApprovalRepository             = (*Store)(nil)
	_ portsrepo.PostingRunRepository           = (*Store)(nil)
	_ portsrepo.JournalRepositoryFacade        = (*Store)(nil)
	_ portsrepo.UnitOfWork                     = (*Store)(nil)
)

func setKey(tenantID, setID string) string {
	return tenantID + "|" + setID
}

func copyBT(bt domain.BusinessTransaction) domain.BusinessTransaction {
	bt.Lines = append([]domain.BusinessTransactionLine(nil), bt.Lines...)
	return bt
}

func copyIntent(in domain.PostingIntent) domain.PostingIntent {
	in.Lines = append([]domain.IntentLine(nil), in.Lines...)
	return in
}

func copyEvent(e domain.AuditEvent) domain.AuditEvent {
	if e.Metadata != nil {
		md := make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			md[k] = v
		}
		e.Metadata = md
	}
	return e
}
