// AngelaMos | 2026
// entity.go

package team

import "time"

// Team is a tenant-scoped working group. Teams are archived, never
// deleted, so sprint and OKR history stays attached.
type Team struct {
	ID          string     `db:"id"          json:"id"`
	TenantID    string     `db:"tenant_id"   json:"tenant_id"`
	Name        string     `db:"name"        json:"name"`
	Slug        string     `db:"slug"        json:"slug"`
	Description *string    `db:"description" json:"description,omitempty"`
	ArchivedAt  *time.Time `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"  json:"updated_at"`
}

func (t *Team) IsArchived() bool {
	return t.ArchivedAt != nil
}
