// AngelaMos | 2026
// entity.go

package wiki

import "time"

// Category orders documents in the sidebar. Slug is unique per tenant.
type Category struct {
	ID        string    `db:"id"         json:"id"`
	TenantID  string    `db:"tenant_id"  json:"tenant_id"`
	Name      string    `db:"name"       json:"name"`
	Slug      string    `db:"slug"       json:"slug"`
	Position  int       `db:"position"   json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Document is tenant-scoped markdown content. CategoryID is optional;
// deleting a category leaves its documents uncategorized rather than
// cascading.
type Document struct {
	ID         string    `db:"id"          json:"id"`
	TenantID   string    `db:"tenant_id"   json:"tenant_id"`
	CategoryID *string   `db:"category_id" json:"category_id,omitempty"`
	Title      string    `db:"title"       json:"title"`
	Slug       string    `db:"slug"        json:"slug"`
	Content    string    `db:"content"     json:"content"`
	CreatedBy  *string   `db:"created_by"  json:"created_by,omitempty"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updated_at"`
}
