// AngelaMos | 2026
// entity.go

package tenant

import "time"

// Tenant is an isolated organization. Every domain row (teams, sprints,
// OKRs, wiki) hangs off one of these via tenant_id; only root sees across
// them. Lifecycle is root-only and deletion is a soft deactivation.
type Tenant struct {
	ID        string    `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Slug      string    `db:"slug"       json:"slug"`
	IsActive  bool      `db:"is_active"  json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
