// AngelaMos | 2026
// scope_test.go

package tenancy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/rbac"
	"github.com/northstarhq/northstar/internal/tenancy"
)

func strptr(s string) *string { return &s }

func TestEffectiveTenantIDNonRootIgnoresOverride(t *testing.T) {
	own := strptr("1f4a2c6e-9b3d-4e8f-a1b2-c3d4e5f60718")
	foreign := strptr("22222222-2222-2222-2222-222222222222")

	for _, roles := range [][]rbac.Role{
		{rbac.RoleMember},
		{rbac.RoleLeader},
		{rbac.RoleAdmin},
		{rbac.RoleMember, rbac.RoleLeader, rbac.RoleAdmin},
	} {
		got := tenancy.EffectiveTenantID(own, roles, foreign)
		assert.Equal(t, own, got, "roles %v must stay on their own tenant", roles)

		got = tenancy.EffectiveTenantID(own, roles, nil)
		assert.Equal(t, own, got)
	}
}

func TestEffectiveTenantIDRoot(t *testing.T) {
	roles := []rbac.Role{rbac.RoleRoot}
	override := strptr("11111111-1111-1111-1111-111111111111")

	// No override: unscoped, all tenants.
	assert.Nil(t, tenancy.EffectiveTenantID(nil, roles, nil))
	assert.Nil(t, tenancy.EffectiveTenantID(strptr("ignored"), roles, nil))

	// Override selects the impersonated tenant.
	got := tenancy.EffectiveTenantID(nil, roles, override)
	assert.Equal(t, override, got)
}

func TestScopeEffectiveTenant(t *testing.T) {
	member := &tenancy.Scope{
		Roles:           []rbac.Role{rbac.RoleMember},
		EffectiveRole:   rbac.RoleMember,
		ProfileTenantID: strptr("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"),
		TenantOverride:  strptr("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"),
	}
	assert.Equal(t, member.ProfileTenantID, member.EffectiveTenant())
	assert.False(t, member.IsRoot())
	assert.False(t, member.Unscoped())

	root := &tenancy.Scope{
		Roles:         []rbac.Role{rbac.RoleRoot},
		EffectiveRole: rbac.RoleRoot,
	}
	assert.Nil(t, root.EffectiveTenant())
	assert.True(t, root.Unscoped())

	root.TenantOverride = strptr("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
	assert.Equal(t, root.TenantOverride, root.EffectiveTenant())
	assert.False(t, root.Unscoped())
}

func TestIsTenantMember(t *testing.T) {
	tenantA := "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	tenantB := "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"

	member := &tenancy.Scope{
		Roles:           []rbac.Role{rbac.RoleMember},
		ProfileTenantID: &tenantA,
	}
	assert.True(t, member.IsTenantMember(tenantA))
	assert.False(t, member.IsTenantMember(tenantB))

	orphan := &tenancy.Scope{Roles: []rbac.Role{rbac.RoleMember}}
	assert.False(t, orphan.IsTenantMember(tenantA))

	root := &tenancy.Scope{Roles: []rbac.Role{rbac.RoleRoot}}
	assert.True(t, root.IsTenantMember(tenantA))
	assert.True(t, root.IsTenantMember(tenantB))
}

func TestNormalizeTenantID(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      string
		wantErr   bool
	}{
		{
			name:      "canonical lowercase",
			candidate: "11111111-1111-1111-1111-111111111111",
			want:      "11111111-1111-1111-1111-111111111111",
		},
		{
			name:      "uppercase is normalized",
			candidate: "AAAAAAAA-BBBB-4CCC-8DDD-EEEEEEEEEEEE",
			want:      "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee",
		},
		{name: "not a uuid", candidate: "not-a-uuid", wantErr: true},
		{name: "empty", candidate: "", wantErr: true},
		{
			name:      "unhyphenated form rejected",
			candidate: "11111111111111111111111111111111",
			wantErr:   true,
		},
		{
			name:      "braced form rejected",
			candidate: "{11111111-1111-1111-1111-111111111111}",
			wantErr:   true,
		},
		{
			name:      "right length, bad hex",
			candidate: "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tenancy.NormalizeTenantID(tt.candidate)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidTenantOverride)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
