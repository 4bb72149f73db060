package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is the kind of change an audit entry records.
type AuditAction string

const (
	ActionCreate AuditAction = "CREATE"
	ActionUpdate AuditAction = "UPDATE"
	ActionDelete AuditAction = "DELETE"
)

// Valid reports whether a is one of the known actions.
func (a AuditAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// AuditEntry records one change made through the console.
// Actor is the e-mail of the operator who made it.
type AuditEntry struct {
	ID         uuid.UUID   `json:"id"`
	Actor      string      `json:"actor"`
	Action     AuditAction `json:"action"`
	Resource   string      `json:"resource"`
	ResourceID string      `json:"resource_id"`
	Details    string      `json:"details"`
	CreatedAt  time.Time   `json:"created_at"`
}

// FilterAll is the filter value meaning "no constraint".
const FilterAll = "all"

// AuditFilter narrows an audit listing. Empty or "all" values do not constrain.
type AuditFilter struct {
	Search string
	Action string
	Actor  string
}
