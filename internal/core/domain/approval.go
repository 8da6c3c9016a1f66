package domain

import "time"

// ApprovalStatus is the decision state of an approval.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// EntityTypeTransactionSet is the approval entity type used by the posting kernel.
const EntityTypeTransactionSet = "transaction_set"

// Approval is a sign-off requirement for an entity. It is terminal once decided.
type Approval struct {
	ID               string         `json:"id"`
	TenantID         string         `json:"tenantID"`
	EntityType       string         `json:"entityType"`
	EntityID         string         `json:"entityID"`
	RequiredRoleName string         `json:"requiredRoleName"`
	Status           ApprovalStatus `json:"status"`
	DecidedByUserID  *string        `json:"decidedByUserID,omitempty"`
	DecidedAt        *time.Time     `json:"decidedAt,omitempty"`
	CreatedByActorID string         `json:"createdByActorID"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// IsDecided reports whether the approval has reached a terminal state.
func (a Approval) IsDecided() bool {
	return a.Status == ApprovalApproved || a.Status == ApprovalRejected
}

// GateDecision is the answer of the approval gate.
type GateDecision string

const (
	GateClear           GateDecision = "CLEAR"
	GateBlockedPending  GateDecision = "BLOCKED_PENDING"
	GateBlockedRejected GateDecision = "BLOCKED_REJECTED"
)

// GateDecisionFor maps the latest approval (nil when none exists) to a gate decision.
func GateDecisionFor(latest *Approval) GateDecision {
	if latest == nil {
		return GateClear
	}
	switch latest.Status {
	case ApprovalApproved:
		return GateClear
	case ApprovalRejected:
		return GateBlockedRejected
	default:
		return GateBlockedPending
	}
}
