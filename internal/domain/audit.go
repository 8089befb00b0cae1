package domain

import "time"

// Audit action names written by the elevation workflow.
const (
	AuditActionRoleElevated = "role_elevated"
	AuditActionRoleDemoted  = "role_demoted"
)

// AuditEntry is an append-only record of a privileged change. Entries are
// never updated or deleted.
type AuditEntry struct {
	ID         string
	Action     string
	EntityType string
	EntityID   string
	ActorID    string
	Changes    map[string]string // structured before/after payload
	CreatedAt  time.Time
}
