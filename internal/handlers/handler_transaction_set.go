package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/SscSPs/bizledger/internal/core/domain"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/dto"
	"github.com/SscSPs/bizledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// transactionSetHandler handles the intake lifecycle of transaction sets and their posting.
type transactionSetHandler struct {
	setService    portssvc.TransactionSetSvcFacade
	intentService portssvc.IntentSvc
	kernel        portssvc.PostingKernel
}

func newTransactionSetHandler(ss portssvc.TransactionSetSvcFacade, is portssvc.IntentSvc, k portssvc.PostingKernel) *transactionSetHandler {
	return &transactionSetHandler{
		setService:    ss,
		intentService: is,
		kernel:        k,
	}
}

// registerTransactionSetRoutes registers routes related to transaction sets.
func registerTransactionSetRoutes(rg *gin.RouterGroup, setService portssvc.TransactionSetSvcFacade, intentService portssvc.IntentSvc, kernel portssvc.PostingKernel) {
	h := newTransactionSetHandler(setService, intentService, kernel)

	sets := rg.Group("/transaction-sets")
	{
		sets.POST("", h.createTransactionSet)
		sets.GET("/:set_id", h.getTransactionSet)
		sets.POST("/:set_id/business-transactions", h.addBusinessTransaction)
		sets.DELETE("/:set_id/business-transactions/:bt_id", h.removeBusinessTransaction)
		sets.POST("/:set_id/submit", h.submitTransactionSet)
		sets.POST("/:set_id/reopen", h.reopenTransactionSet)
		sets.POST("/:set_id/intent", h.recordIntent)
		sets.POST("/:set_id/post", h.postTransactionSet)
	}
}

// createTransactionSet godoc
// @Summary Open a transaction set
// @Description Creates a DRAFT transaction set that business transactions can be added to
// @Tags transaction-sets
// @Accept  json
// @Produce  json
// @Param   tenant_id path string true "Tenant ID"
// @Param   set body dto.CreateTransactionSetRequest true "Set details"
// @Success 201 {object} dto.TransactionSetResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create transaction set"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/transaction-sets [post]
func (h *transactionSetHandler) createTransactionSet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateTransactionSetRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind JSON for CreateTransactionSet", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	set, err := h.setService.CreateTransactionSet(c.Request.Context(), c.Param("tenant_id"), req, actorID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create transaction set")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionSetResponse(set, nil, nil))
}

// getTransactionSet godoc
// @Summary Get a transaction set
// @Description Returns the set with its business transactions and its posting run, if any
// @Tags transaction-sets
// @Produce  json
// @Param   tenant_id path string true "Tenant ID"
// @Param   set_id path string true "Transaction set ID"
// @Success 200 {object} dto.TransactionSetResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction set not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction set"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/transaction-sets/{set_id} [get]
func (h *transactionSetHandler) getTransactionSet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, setID := c.Param("tenant_id"), c.Param("set_id")
	logger = logger.With(slog.String("set_id", setID))

	set, bts, err := h.setService.GetTransactionSet(c.Request.Context(), tenantID, setID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve transaction set")
		return
	}
	run, err := h.setService.GetPostingRun(c.Request.Context(), tenantID, setID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve transaction set")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionSetResponse(set, bts, run))
}

// addBusinessTransaction godoc
// @Summary Add a business transaction
// @Description Adds a business fact to a DRAFT set and bumps its version
// @Tags transaction-sets
// @Accept  json
// @Produce  json
// @Param   tenant_id path string true "Tenant ID"
// @Param   set_id path string true "Transaction set ID"
// @Param   bt body dto.AddBusinessTransactionRequest true "Business transaction"
// @Success 201 {object} dto.BusinessTransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction set not found"
// @Failure 409 {object} map[string]string "Set is not a draft"
// @Failure 500 {object} map[string]string "Failed to add business transaction"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/transaction-sets/{set_id}/business-transactions [post]
func (h *transactionSetHandler) addBusinessTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AddBusinessTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddBusinessTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	setID := c.Param("set_id")
	bt, err := h.setService.AddBusinessTransaction(c.Request.Context(), c.Param("tenant_id"), setID, req, actorID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("set_id", setID)), err, "Failed to add business transaction")
		return
	}

	c.JSON(http.StatusCreated, dto.ToBusinessTransactionResponse(bt))
}

// removeBusinessTransaction godoc
// @Summary Remove a business transaction
// @Tags transaction-sets
// @Param   tenant_id path string true "Tenant ID"
// @Param   set_id path string true "Transaction set ID"
// @Param   bt_id path string true "Business transaction ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Set is not a draft"
// @Failure 500 {object} map[string]string "Failed to remove business transaction"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/transaction-sets/{set_id}/business-transactions/{bt_id} [delete]
func (h *transactionSetHandler) removeBusinessTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	setID, btID := c.Param("set_id"), c.Param("bt_id")
	if err := h.setService.RemoveBusinessTransaction(c.Request.Context(), c.Param("tenant_id"), setID, btID, actorID); err != nil {
		respondWithError(c, logger.With(slog.String("set_id", setID), slog.String("bt_id", btID)), err, "Failed to remove business transaction")
		return
	}

	c.Status(http.StatusNoContent)
}

// submitTransactionSet godoc
// @Summary Submit a transaction set for review
// @Tags transaction-sets
// @Produce  json
// @Param   tenant_id path string true "Tenant ID"
// @Param   set_id path string true "Transaction set ID"
// @Success 200 {object} dto.TransactionSetResponse
// @Failure 400 {object} map[string]string "Set has no business transactions"
// @Failure 404 {object} map[string]string "Transaction set not found"
// @Failure 409 {object} map[string]string "Set is not a draft"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/transaction-sets/{set_id}/submit [post]
func (h *transactionSetHandler) submitTransactionSet(c *gin.Context) {
	h.transition(c, "Failed to submit transaction set", h.setService.SubmitTransactionSet)
}

// reopenTransactionSet godoc
// @Summary Reopen a transaction set
// @Description Moves a REVIEW set back to DRAFT unless a posting run is started or succeeded
// @Tags transaction-sets
// @Produce  json
// @Param   tenant_id path string true "Tenant ID"
// @Param   set_id path string true "Transaction set ID"
// @Success 200 {object} dto.TransactionSetResponse
// @Failure 404 {object} map[string]string "Transaction set not found"
// @Failure 409 {object} map[string]string "Set cannot be reopened"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/transaction-sets/{set_id}/reopen [post]
func (h *transactionSetHandler) reopenTransactionSet(c *gin.Context) {
	h.transition(c, "Failed to reopen transaction set", h.setService.ReopenTransactionSet)
}

type setTransitionFunc func(ctx context.Context, tenantID, setID, actorID string) (*domain.TransactionSet, error)

func (h *transactionSetHandler) transition(c *gin.Context, failureMsg string, fn setTransitionFunc) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	tenantID, setID := c.Param("tenant_id"), c.Param("set_id")
	logger = logger.With(slog.String("set_id", setID))
	set, err := fn(c.Request.Context(), tenantID, setID, actorID)
	if err != nil {
		respondWithError(c, logger, err, failureMsg)
		return
	}
	_, bts, err := h.setService.GetTransactionSet(c.Request.Context(), tenantID, setID)
	if err != nil {
		respondWithError(c, logger, err, failureMsg)
		return
	}

	logger.Info("Transaction set moved", slog.String("status", string(set.Status)))
	c.JSON(http.StatusOK, dto.ToTransactionSetResponse(set, bts, nil))
}

// recordIntent godoc
// @Summary Compute or record the posting intent of a set
// @Description Without lines the posting rules resolve the intent; with lines an externally computed intent is stored on a draft set
// @Tags transaction-sets
// @Accept  json
// @Produce  json
// @Param   tenant_id path string true "Tenant ID"
// @Param   set_id path string true "Transaction set ID"
// @Param   intent body dto.RecordIntentRequest false "Externally computed lines"
// @Success 201 {object} dto.PostingIntentResponse
// @Failure 400 {object} map[string]string "Intent could not be resolved"
// @Failure 404 {object} map[string]string "Transaction set not found"
// @Failure 409 {object} map[string]string "Set is posted, or lines were sent for a set past draft"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/transaction-sets/{set_id}/intent [post]
func (h *transactionSetHandler) recordIntent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind JSON for RecordIntent", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	tenantID, setID := c.Param("tenant_id"), c.Param("set_id")
	var (
		intent *domain.PostingIntent
		err    error
	)
	if len(req.Lines) == 0 {
		intent, err = h.intentService.ResolveIntent(c.Request.Context(), tenantID, setID, actorID)
	} else {
		intent, err = h.intentService.RecordIntent(c.Request.Context(), tenantID, setID, req.ToIntentLines(), actorID)
	}
	if err != nil {
		respondWithError(c, logger.With(slog.String("set_id", setID)), err, "Failed to record posting intent")
		return
	}

	c.JSON(http.StatusCreated, dto.ToPostingIntentResponse(intent))
}

// postTransactionSet godoc
// @Summary Post a transaction set to the ledger
// @Description Turns the set's current posting intent into exactly one journal entry. Repeating the call returns the same entry.
// @Tags transaction-sets
// @Produce  json
// @Param   tenant_id path string true "Tenant ID"
// @Param   set_id path string true "Transaction set ID"
// @Success 200 {object} dto.PostResponse
// @Failure 400 {object} map[string]string "Intent references unusable accounts"
// @Failure 404 {object} map[string]string "Transaction set not found"
// @Failure 409 {object} map[string]string "Set cannot be posted in its current state"
// @Failure 422 {object} map[string]string "Intent does not balance"
// @Failure 500 {object} map[string]string "Failed to post transaction set"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/transaction-sets/{set_id}/post [post]
func (h *transactionSetHandler) postTransactionSet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	setID := c.Param("set_id")
	logger = logger.With(slog.String("set_id", setID))
	entryID, err := h.kernel.Post(c.Request.Context(), c.Param("tenant_id"), setID, actorID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to post transaction set")
		return
	}

	logger.Info("Transaction set posted", slog.String("journal_entry_id", entryID))
	c.JSON(http.StatusOK, dto.PostResponse{JournalEntryID: entryID})
}
