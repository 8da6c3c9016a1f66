package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/dto"
	"github.com/SscSPs/bizledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type approvalHandler struct {
	approvalService portssvc.ApprovalSvcFacade
}

func newApprovalHandler(as portssvc.ApprovalSvcFacade) *approvalHandler {
	return &approvalHandler{approvalService: as}
}

// registerApprovalRoutes registers routes related to approvals.
func registerApprovalRoutes(rg *gin.RouterGroup, approvalService portssvc.ApprovalSvcFacade) {
	h := newApprovalHandler(approvalService)

	approvals := rg.Group("/approvals")
	{
		approvals.POST("", h.requestApproval)
		approvals.POST("/:approval_id/decision", h.decideApproval)
	}
}

// requestApproval godoc
// @Summary Request an approval
// @Description Asks a holder of the required role to sign off a transaction set before it can be posted
// @Tags approvals
// @Accept  json
// @Produce  json
// @Param   tenant_id path string true "Tenant ID"
// @Param   approval body dto.RequestApprovalRequest true "Approval request"
// @Success 201 {object} dto.ApprovalResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Entity not found"
// @Failure 500 {object} map[string]string "Failed to request approval"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/approvals [post]
func (h *approvalHandler) requestApproval(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RequestApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RequestApproval", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	approval, err := h.approvalService.RequestApproval(c.Request.Context(), c.Param("tenant_id"), req, actorID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("entity_id", req.EntityID)), err, "Failed to request approval")
		return
	}

	logger.Info("Approval requested", slog.String("approval_id", approval.ID), slog.String("entity_id", req.EntityID))
	c.JSON(http.StatusCreated, dto.ToApprovalResponse(approval))
}

// decideApproval godoc
// @Summary Decide a pending approval
// @Description The caller's token must carry the approval's required role
// @Tags approvals
// @Accept  json
// @Produce  json
// @Param   tenant_id path string true "Tenant ID"
// @Param   approval_id path string true "Approval ID"
// @Param   decision body dto.DecideApprovalRequest true "Decision"
// @Success 200 {object} dto.ApprovalResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Missing required role"
// @Failure 404 {object} map[string]string "Approval not found"
// @Failure 409 {object} map[string]string "Approval already decided"
// @Security BearerAuth
// @Router /tenants/{tenant_id}/approvals/{approval_id}/decision [post]
func (h *approvalHandler) decideApproval(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.DecideApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for DecideApproval", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	approvalID := c.Param("approval_id")
	approval, err := h.approvalService.DecideApproval(c.Request.Context(), c.Param("tenant_id"), approvalID, req.Decision, actorID, middleware.GetRolesFromContext(c))
	if err != nil {
		respondWithError(c, logger.With(slog.String("approval_id", approvalID)), err, "Failed to decide approval")
		return
	}

	logger.Info("Approval decided", slog.String("approval_id", approvalID), slog.String("decision", string(approval.Status)))
	c.JSON(http.StatusOK, dto.ToApprovalResponse(approval))
}
