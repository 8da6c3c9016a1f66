package domain

import "time"

// AuditAction names what happened to an entity.
type AuditAction string

const (
	AuditPosted       AuditAction = "posted"
	AuditReversed     AuditAction = "reversed"
	AuditRetryCleared AuditAction = "retry_cleared"
	AuditMarkedStuck  AuditAction = "marked_stuck"
)

const (
	AuditEntityJournalEntry = "journal_entry"
	AuditEntityPostingRun   = "posting_run"
)

// AuditEvent is an append-only record of a ledger-affecting action.
type AuditEvent struct {
	ID         string            `json:"id"`
	TenantID   string            `json:"tenantID"`
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityID"`
	Action     AuditAction       `json:"action"`
	ActorID    string            `json:"actorID"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}
