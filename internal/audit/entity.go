// AngelaMos | 2026
// entity.go

package audit

import (
	"encoding/json"
	"time"
)

// Actions are verbs; the subject lives in EntityType. Together they name
// what happened without free-form strings scattered across call sites.
const (
	ActionCreated         = "created"
	ActionUpdated         = "updated"
	ActionDeleted         = "deleted"
	ActionArchived        = "archived"
	ActionDeactivated     = "deactivated"
	ActionReactivated     = "reactivated"
	ActionStatusChanged   = "status_changed"
	ActionProgressUpdated = "progress_updated"
	ActionRoleGranted     = "role_granted"
	ActionRoleRevoked     = "role_revoked"
	ActionLogin           = "login"
	ActionLogout          = "logout"
	ActionPasswordReset   = "password_reset"
	ActionOverrideSet     = "override_set"
	ActionOverrideCleared = "override_cleared"
)

const (
	EntityTenant       = "tenant"
	EntityProfile      = "profile"
	EntityUser         = "user"
	EntityTeam         = "team"
	EntitySprint       = "sprint"
	EntityOKR          = "okr"
	EntityKeyResult    = "key_result"
	EntityWikiDocument = "wiki_document"
	EntityWikiCategory = "wiki_category"
	EntitySession      = "session"
)

// Entry is what callers hand to the Recorder. ActorUserID, Action and
// EntityType are mandatory; the rest is context.
type Entry struct {
	ActorUserID string
	TenantID    *string
	Action      string
	EntityType  string
	EntityID    *string
	Details     map[string]any
}

// Log is the persisted, append-only row. Rows are never updated or deleted
// once written.
type Log struct {
	ID          string          `db:"id" json:"id"`
	TenantID    *string         `db:"tenant_id" json:"tenant_id,omitempty"`
	ActorUserID string          `db:"actor_user_id" json:"actor_user_id"`
	Action      string          `db:"action" json:"action"`
	EntityType  string          `db:"entity_type" json:"entity_type"`
	EntityID    *string         `db:"entity_id" json:"entity_id,omitempty"`
	Details     json.RawMessage `db:"details" json:"details,omitempty"`
	RecordedAt  time.Time       `db:"recorded_at" json:"recorded_at"`
}
