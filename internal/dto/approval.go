package dto

import (
	"time"

	"github.com/SscSPs/bizledger/internal/core/domain"
)

// RequestApprovalRequest asks for a sign-off on an entity.
type RequestApprovalRequest struct {
	EntityType       string `json:"entityType" binding:"required,oneof=transaction_set"`
	EntityID         string `json:"entityID" binding:"required"`
	RequiredRoleName string `json:"requiredRoleName" binding:"required"`
}

// DecideApprovalRequest records the decision on a pending approval.
type DecideApprovalRequest struct {
	Decision domain.ApprovalStatus `json:"decision" binding:"required,oneof=APPROVED REJECTED"`
}

// ApprovalResponse mirrors domain.Approval.
type ApprovalResponse struct {
	ID               string                `json:"id"`
	EntityType       string                `json:"entityType"`
	EntityID         string                `json:"entityID"`
	RequiredRoleName string                `json:"requiredRoleName"`
	Status           domain.ApprovalStatus `json:"status"`
	DecidedBy        *string               `json:"decidedBy,omitempty"`
	DecidedAt        *time.Time            `json:"decidedAt,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
}

// ToApprovalResponse converts a domain.Approval to its DTO.
func ToApprovalResponse(a *domain.Approval) ApprovalResponse {
	return ApprovalResponse{
		ID:               a.ID,
		EntityType:       a.EntityType,
		EntityID:         a.EntityID,
		RequiredRoleName: a.RequiredRoleName,
		Status:           a.Status,
		DecidedBy:        a.DecidedByUserID,
		DecidedAt:        a.DecidedAt,
		CreatedAt:        a.CreatedAt,
	}
}
