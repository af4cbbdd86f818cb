// AngelaMos | 2026
// service_test.go

package tenant_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northstarhq/northstar/internal/authz"
	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/rbac"
	"github.com/northstarhq/northstar/internal/tenancy"
	"github.com/northstarhq/northstar/internal/tenant"
	"github.com/northstarhq/northstar/internal/validation"
)

const tenantA = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"

func strptr(s string) *string { return &s }

type stubRepo struct {
	tenants   map[string]*tenant.Tenant
	setActive map[string]bool
}

func newStubRepo(tenants ...*tenant.Tenant) *stubRepo {
	r := &stubRepo{
		tenants:   make(map[string]*tenant.Tenant),
		setActive: make(map[string]bool),
	}
	for _, t := range tenants {
		r.tenants[t.ID] = t
	}
	return r
}

func (r *stubRepo) Create(_ context.Context, t *tenant.Tenant) error {
	for _, existing := range r.tenants {
		if existing.Slug == t.Slug {
			return fmt.Errorf("create tenant: %w", core.ErrDuplicateKey)
		}
	}
	t.IsActive = true
	r.tenants[t.ID] = t
	return nil
}

func (r *stubRepo) GetByID(
	_ context.Context,
	id string,
) (*tenant.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, fmt.Errorf("get tenant: %w", core.ErrNotFound)
	}
	copied := *t
	return &copied, nil
}

func (r *stubRepo) GetBySlug(
	_ context.Context,
	slug string,
) (*tenant.Tenant, error) {
	for _, t := range r.tenants {
		if t.Slug == slug {
			copied := *t
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("get tenant by slug: %w", core.ErrNotFound)
}

func (r *stubRepo) Update(_ context.Context, t *tenant.Tenant) error {
	stored, ok := r.tenants[t.ID]
	if !ok {
		return fmt.Errorf("update tenant: %w", core.ErrNotFound)
	}
	stored.Name = t.Name
	stored.Slug = t.Slug
	return nil
}

func (r *stubRepo) SetActive(
	_ context.Context,
	id string,
	active bool,
) error {
	t, ok := r.tenants[id]
	if !ok {
		return fmt.Errorf("set tenant active: %w", core.ErrNotFound)
	}
	t.IsActive = active
	r.setActive[id] = active
	return nil
}

func (r *stubRepo) List(
	_ context.Context,
	_ tenant.ListTenantsParams,
) ([]tenant.Tenant, int, error) {
	out := make([]tenant.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, *t)
	}
	return out, len(out), nil
}

var _ tenant.Repository = (*stubRepo)(nil)

type stubOverrides struct {
	set     map[string]string
	cleared []string
	setErr  error
}

func newStubOverrides() *stubOverrides {
	return &stubOverrides{set: make(map[string]string)}
}

func (o *stubOverrides) Set(
	_ context.Context,
	sessionID, candidate string,
) error {
	if o.setErr != nil {
		return o.setErr
	}
	o.set[sessionID] = candidate
	return nil
}

func (o *stubOverrides) Clear(_ context.Context, sessionID string) error {
	o.cleared = append(o.cleared, sessionID)
	return nil
}

func newTestService(
	repo tenant.Repository,
	overrides tenant.OverrideStore,
) *tenant.Service {
	gate := authz.NewGate(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return tenant.NewService(repo, gate, overrides, validation.New(), nil)
}

func rootScope() *tenancy.Scope {
	return &tenancy.Scope{
		UserID:        "root-1",
		SessionID:     "session-root",
		Roles:         []rbac.Role{rbac.RoleRoot},
		EffectiveRole: rbac.RoleRoot,
	}
}

func adminScope() *tenancy.Scope {
	return &tenancy.Scope{
		UserID:          "admin-1",
		SessionID:       "session-admin",
		Roles:           []rbac.Role{rbac.RoleAdmin},
		EffectiveRole:   rbac.RoleAdmin,
		ProfileTenantID: strptr(tenantA),
	}
}

func memberScope(tenantID string) *tenancy.Scope {
	return &tenancy.Scope{
		UserID:          "member-1",
		SessionID:       "session-member",
		Roles:           []rbac.Role{rbac.RoleMember},
		EffectiveRole:   rbac.RoleMember,
		ProfileTenantID: strptr(tenantID),
	}
}

func TestCreateTenantIsRootOnly(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, newStubOverrides())

	_, err := svc.Create(context.Background(), adminScope(),
		tenant.CreateTenantRequest{Name: "Acme", Slug: "acme"})
	assert.ErrorIs(t, err, core.ErrForbidden)

	created, err := svc.Create(context.Background(), rootScope(),
		tenant.CreateTenantRequest{Name: "  Acme  ", Slug: "acme"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", created.Name)
	assert.True(t, created.IsActive)
}

func TestCreateTenantRejectsBadSlug(t *testing.T) {
	svc := newTestService(newStubRepo(), newStubOverrides())

	_, err := svc.Create(context.Background(), rootScope(),
		tenant.CreateTenantRequest{Name: "Acme", Slug: "Not A Slug!"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidationFailed)

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Result.Errors, 1)
	assert.Equal(t, "slug", verr.Result.Errors[0].Field)
}

func TestGetTenantVisibility(t *testing.T) {
	acme := &tenant.Tenant{ID: tenantA, Name: "Acme", Slug: "acme", IsActive: true}
	other := &tenant.Tenant{
		ID:       "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb",
		Name:     "Globex",
		Slug:     "globex",
		IsActive: true,
	}
	repo := newStubRepo(acme, other)
	svc := newTestService(repo, newStubOverrides())

	got, err := svc.Get(context.Background(), memberScope(tenantA), tenantA)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Slug)

	_, err = svc.Get(context.Background(), memberScope(tenantA), other.ID)
	assert.ErrorIs(t, err, core.ErrNotFound,
		"foreign tenants read as missing")

	got, err = svc.Get(context.Background(), rootScope(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, "globex", got.Slug)
}

func TestUpdateTenantValidatesMergedState(t *testing.T) {
	acme := &tenant.Tenant{ID: tenantA, Name: "Acme", Slug: "acme", IsActive: true}
	repo := newStubRepo(acme)
	svc := newTestService(repo, newStubOverrides())

	_, err := svc.Update(context.Background(), rootScope(), tenantA,
		tenant.UpdateTenantRequest{Slug: strptr("UPPER")})
	assert.ErrorIs(t, err, core.ErrValidationFailed)
	assert.Equal(t, "acme", repo.tenants[tenantA].Slug,
		"failed validation must not persist")

	updated, err := svc.Update(context.Background(), rootScope(), tenantA,
		tenant.UpdateTenantRequest{Name: strptr("Acme Corp")})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.Name)
	assert.Equal(t, "acme", updated.Slug)
}

func TestDeactivateReactivateTenant(t *testing.T) {
	acme := &tenant.Tenant{ID: tenantA, Name: "Acme", Slug: "acme", IsActive: true}
	repo := newStubRepo(acme)
	svc := newTestService(repo, newStubOverrides())

	err := svc.Deactivate(context.Background(), adminScope(), tenantA)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = svc.Deactivate(context.Background(), rootScope(), tenantA)
	require.NoError(t, err)
	assert.False(t, repo.tenants[tenantA].IsActive)

	err = svc.Reactivate(context.Background(), rootScope(), tenantA)
	require.NoError(t, err)
	assert.True(t, repo.tenants[tenantA].IsActive)
}

func TestListTenantsIsRootOnly(t *testing.T) {
	svc := newTestService(newStubRepo(), newStubOverrides())

	_, _, err := svc.List(
		context.Background(),
		adminScope(),
		tenant.ListTenantsParams{},
	)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, _, err = svc.List(
		context.Background(),
		rootScope(),
		tenant.ListTenantsParams{},
	)
	assert.NoError(t, err)
}

func TestSetOverrideIsRootOnly(t *testing.T) {
	overrides := newStubOverrides()
	svc := newTestService(newStubRepo(), overrides)

	err := svc.SetOverride(context.Background(), adminScope(), tenantA)
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Empty(t, overrides.set)

	err = svc.SetOverride(context.Background(), memberScope(tenantA), tenantA)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = svc.SetOverride(context.Background(), rootScope(), tenantA)
	require.NoError(t, err)
	assert.Equal(t, tenantA, overrides.set["session-root"],
		"override is keyed by the acting session")
}

func TestSetOverridePropagatesStoreRejection(t *testing.T) {
	overrides := newStubOverrides()
	overrides.setErr = fmt.Errorf(
		"tenant id is not a valid UUID: %w",
		core.ErrInvalidTenantOverride,
	)
	svc := newTestService(newStubRepo(), overrides)

	err := svc.SetOverride(context.Background(), rootScope(), "not-a-uuid")
	assert.ErrorIs(t, err, core.ErrInvalidTenantOverride)
}

func TestClearOverride(t *testing.T) {
	overrides := newStubOverrides()
	svc := newTestService(newStubRepo(), overrides)

	err := svc.ClearOverride(context.Background(), adminScope())
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = svc.ClearOverride(context.Background(), rootScope())
	require.NoError(t, err)
	assert.Equal(t, []string{"session-root"}, overrides.cleared)
}
