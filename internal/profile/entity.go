// AngelaMos | 2026
// entity.go

package profile

import (
	"time"

	"github.com/northstarhq/northstar/internal/rbac"
)

// User carries credentials and account lifecycle; everything a person
// presents to the product lives on their Profile.
type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	TokenVersion int        `db:"token_version"`
	IsActive     bool       `db:"is_active"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// Profile is one-to-one with User. TenantID is nil until an administrator
// places the account in a tenant; root operators typically stay unassigned.
type Profile struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TenantID  *string   `db:"tenant_id"`
	Name      string    `db:"name"`
	Title     *string   `db:"title"`
	AvatarURL *string   `db:"avatar_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type RoleAssignment struct {
	UserID    string    `db:"user_id"`
	Role      rbac.Role `db:"role"`
	GrantedBy *string   `db:"granted_by"`
	GrantedAt time.Time `db:"granted_at"`
}

// Account is the joined user+profile view most callers want, with the
// current role assignments loaded alongside.
type Account struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	TokenVersion int       `db:"token_version"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	ProfileID string  `db:"profile_id"`
	TenantID  *string `db:"tenant_id"`
	Name      string  `db:"name"`
	Title     *string `db:"title"`
	AvatarURL *string `db:"avatar_url"`

	Roles []rbac.Role `db:"-"`
}
