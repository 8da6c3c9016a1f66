package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/bizledger/internal/apperrors"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/dto"
	"github.com/SscSPs/bizledger/internal/middleware"
)

// journalService implements the read side of the journal.
type journalService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryFacade
}

// NewJournalService creates a new journal reader.
func NewJournalService(journalRepo portsrepo.JournalRepositoryFacade, opts ...ServiceOption) portssvc.JournalReaderSvc {
	return &journalService{
		BaseService: newBaseService(opts...),
		journalRepo: journalRepo,
	}
}

var _ portssvc.JournalReaderSvc = (*journalService)(nil)

// GetJournalEntry retrieves an entry with its lines and both sides of any reversal link.
func (s *journalService) GetJournalEntry(ctx context.Context, tenantID, entryID string) (*dto.GetJournalEntryResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.journalRepo.FindJournalEntryByID(ctx, tenantID, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find journal entry by ID", slog.String("error", err.Error()), slog.String("journal_entry_id", entryID))
		}
		return nil, fmt.Errorf("failed to find journal entry %s: %w", entryID, err)
	}

	lines, err := s.journalRepo.FindJournalLines(ctx, entryID)
	if err != nil {
		logger.Error("Failed to fetch lines for journal entry", slog.String("error", err.Error()), slog.String("journal_entry_id", entryID))
		return nil, fmt.Errorf("failed to retrieve lines for journal entry %s: %w", entryID, apperrors.ErrInternal)
	}

	resp := &dto.GetJournalEntryResponse{
		Entry: dto.ToJournalEntryResponse(entry),
		Lines: dto.ToJournalLineResponses(lines),
	}

	if link, err := s.journalRepo.FindReversalLinkByOriginal(ctx, entryID); err == nil {
		resp.ReversedBy = &link.ReversalJournalEntryID
		resp.ReversalNote = &link.Reason
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if link, err := s.journalRepo.FindReversalLinkByReversal(ctx, entryID); err == nil {
		resp.ReversalOf = &link.OriginalJournalEntryID
		resp.ReversalNote = &link.Reason
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	logger.Debug("Journal entry retrieved", slog.String("journal_entry_id", entryID), slog.Int("line_count", len(lines)))
	return resp, nil
}

// ListJournalEntries retrieves a page of entries of the tenant, newest first.
func (s *journalService) ListJournalEntries(ctx context.Context, tenantID string, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	var token *string
	if params.NextToken != "" {
		token = &params.NextToken
	}

	entries, nextToken, err := s.journalRepo.ListJournalEntries(ctx, tenantID, limit, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return nil, err
		}
		logger.Error("Failed to list journal entries from repository", "error", err)
		return nil, fmt.Errorf("failed to retrieve journal entries: %w", err)
	}

	resp := &dto.ListJournalEntriesResponse{
		Entries:   make([]dto.JournalEntryResponse, len(entries)),
		NextToken: nextToken,
	}
	for i := range entries {
		resp.Entries[i] = dto.ToJournalEntryResponse(&entries[i])
	}

	logger.Info("Journal entries listed", "count", len(entries))
	return resp, nil
}
