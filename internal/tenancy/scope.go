// AngelaMos | 2026
// scope.go

package tenancy

import (
	"github.com/northstarhq/northstar/internal/rbac"
)

// Scope is the per-request authorization context: who is acting, with which
// roles, and against which tenant. It is rebuilt from storage on every
// request and passed explicitly; nothing here is cached or global.
type Scope struct {
	UserID          string
	ProfileID       string
	SessionID       string
	Email           string
	Roles           []rbac.Role
	EffectiveRole   rbac.Role
	ProfileTenantID *string
	// TenantOverride is only populated for root actors, from the
	// session-scoped override slot. Non-root values are never read.
	TenantOverride *string
}

// EffectiveTenantID resolves which tenant a request may touch. Root with an
// override acts as that tenant; root without one acts across all tenants
// (nil). Everyone else is confined to their profile's tenant no matter what
// override value is present.
func EffectiveTenantID(
	profileTenantID *string,
	roles []rbac.Role,
	override *string,
) *string {
	if rbac.IsRoot(roles) {
		return override
	}
	return profileTenantID
}

func (s *Scope) EffectiveTenant() *string {
	return EffectiveTenantID(s.ProfileTenantID, s.Roles, s.TenantOverride)
}

func (s *Scope) IsRoot() bool {
	return rbac.IsRoot(s.Roles)
}

// Unscoped reports whether the actor operates across all tenants.
func (s *Scope) Unscoped() bool {
	return s.IsRoot() && s.TenantOverride == nil
}

// IsTenantMember reports whether the actor belongs to tenantID. Root is a
// member of every tenant.
func (s *Scope) IsTenantMember(tenantID string) bool {
	if s.IsRoot() {
		return true
	}
	return s.ProfileTenantID != nil && *s.ProfileTenantID == tenantID
}
