package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/dto"
	"github.com/SscSPs/bizledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler exposes the read side of the journal and reversals.
type journalHandler struct {
	journalService portssvc.JournalReaderSvc
	reversalEngine portssvc.ReversalEngine
}

func newJournalHandler(js portssvc.JournalReaderSvc, re portssvc.ReversalEngine) *journalHandler {
	return &journalHandler{
		journalService: js,
		reversalEngine: re,
	}
}

// registerJournalRoutes registers routes related to journal entries.
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalReaderSvc, reversalEngine portssvc.ReversalEngine) {
	h := newJournalHandler(journalService, reversalEngine)

	entries := rg.Group("/journal-entries")
	{
		entries.GET("", h.listJournalEntries)
		entries.GET("/:entry_id", h.getJournalEntry)
		entries.POST("/:entry_id/reverse", h.reverseJournalEntry)
	}
}

// listJournalEntries godoc
// @Summary List journal entries
// @Description Lists entries newest first using token-based pagination
// @Tags journal-entries
// @Produce  json
// @Param   tenant_id path string true "Tenant ID"
// @Param   limit query int false "Page size (1-100)" default(20)
// @Param   nextToken query string false "Token of the next page"
// @Success 200 {object} dto.ListJournalEntriesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list journal entries"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/journal-entries [get]
func (h *journalHandler) listJournalEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListJournalEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListJournalEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.journalService.ListJournalEntries(c.Request.Context(), c.Param("tenant_id"), params)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list journal entries")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getJournalEntry godoc
// @Summary Get a journal entry
// @Description Returns the entry with its lines and its reversal relations
// @Tags journal-entries
// @Produce  json
// @Param   tenant_id path string true "Tenant ID"
// @Param   entry_id path string true "Journal entry ID"
// @Success 200 {object} dto.GetJournalEntryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Journal entry not found"
// @Failure 500 {object} map[string]string "Failed to retrieve journal entry"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/journal-entries/{entry_id} [get]
func (h *journalHandler) getJournalEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("entry_id")

	resp, err := h.journalService.GetJournalEntry(c.Request.Context(), c.Param("tenant_id"), entryID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("journal_entry_id", entryID)), err, "Failed to retrieve journal entry")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// reverseJournalEntry godoc
// @Summary Reverse a journal entry
// @Description Posts a mirrored entry that nets the original to zero. Each entry can be reversed once.
// @Tags journal-entries
// @Accept  json
// @Produce  json
// @Param   tenant_id path string true "Tenant ID"
// @Param   entry_id path string true "Journal entry ID"
// @Param   reversal body dto.ReverseJournalEntryRequest true "Reason and optional posting date"
// @Success 201 {object} dto.ReverseJournalEntryResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Journal entry not found"
// @Failure 409 {object} map[string]string "Journal entry already reversed"
// @Failure 500 {object} map[string]string "Failed to reverse journal entry"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/journal-entries/{entry_id}/reverse [post]
func (h *journalHandler) reverseJournalEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReverseJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReverseJournalEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	tenantID, entryID := c.Param("tenant_id"), c.Param("entry_id")
	logger = logger.With(slog.String("journal_entry_id", entryID))

	var (
		reversalID string
		err        error
	)
	if req.PostingDate != nil {
		postingDate, perr := time.Parse(dto.DateLayout, *req.PostingDate)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "postingDate must be a date in YYYY-MM-DD format"})
			return
		}
		reversalID, err = h.reversalEngine.ReverseOn(c.Request.Context(), tenantID, entryID, req.Reason, actorID, postingDate)
	} else {
		reversalID, err = h.reversalEngine.Reverse(c.Request.Context(), tenantID, entryID, req.Reason, actorID)
	}
	if err != nil {
		respondWithError(c, logger, err, "Failed to reverse journal entry")
		return
	}

	logger.Info("Journal entry reversed", slog.String("reversal_journal_entry_id", reversalID))
	c.JSON(http.StatusCreated, dto.ReverseJournalEntryResponse{ReversalJournalEntryID: reversalID})
}
