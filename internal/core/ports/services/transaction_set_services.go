package services

import (
	"context"

	"github.com/SscSPs/bizledger/internal/core/domain"
	"github.com/SscSPs/bizledger/internal/dto"
)

// TransactionSetReaderSvc defines read operations on transaction sets.
type TransactionSetReaderSvc interface {
	GetTransactionSet(ctx context.Context, tenantID, setID string) (*domain.TransactionSet, []domain.BusinessTransaction, error)

	// GetPostingRun returns the posting run of the set, or nil when it was never posted.
	GetPostingRun(ctx context.Context, tenantID, setID string) (*domain.PostingRun, error)
}

// TransactionSetWriterSvc defines the intake lifecycle of transaction sets.
type TransactionSetWriterSvc interface {
	CreateTransactionSet(ctx context.Context, tenantID string, req dto.CreateTransactionSetRequest, actorID string) (*domain.TransactionSet, error)
	AddBusinessTransaction(ctx context.Context, tenantID, setID string, req dto.AddBusinessTransactionRequest, actorID string) (*domain.BusinessTransaction, error)
	RemoveBusinessTransaction(ctx context.Context, tenantID, setID, btID, actorID string) error

	// SubmitTransactionSet moves a DRAFT set with at least one business transaction to REVIEW.
	SubmitTransactionSet(ctx context.Context, tenantID, setID, actorID string) (*domain.TransactionSet, error)

	// ReopenTransactionSet moves a REVIEW set back to DRAFT unless a posting run is started or succeeded.
	ReopenTransactionSet(ctx context.Context, tenantID, setID, actorID string) (*domain.TransactionSet, error)
}

// TransactionSetSvcFacade combines the transaction set service interfaces
type TransactionSetSvcFacade interface {
	TransactionSetReaderSvc
	TransactionSetWriterSvc
}

// IntentSvc produces and reads posting intents.
type IntentSvc interface {
	// ResolveIntent runs the posting rules over the set and stores the resulting intent.
	ResolveIntent(ctx context.Context, tenantID, setID, actorID string) (*domain.PostingIntent, error)

	// RecordIntent stores lines computed by an external resolver. Only line shape is checked here;
	// balance is enforced when the intent is posted. The set must still be DRAFT.
	RecordIntent(ctx context.Context, tenantID, setID string, lines []domain.IntentLine, actorID string) (*domain.PostingIntent, error)

	GetLatestIntent(ctx context.Context, tenantID, setID string) (*domain.PostingIntent, error)
}
