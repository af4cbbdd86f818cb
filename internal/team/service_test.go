// AngelaMos | 2026
// service_test.go

package team_test

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
	"github.com/northstarhq/northstar/internal/team"
	"github.com/northstarhq/northstar/internal/tenancy"
	"github.com/northstarhq/northstar/internal/validation"
)

const (
	tenantA = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	tenantB = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
)

func strptr(s string) *string { return &s }

type stubRepo struct {
	teams    map[string]*team.Team
	created  []*team.Team
	archived []string
	restored []string
	lastList team.ListTeamsParams
}

func newStubRepo(teams ...*team.Team) *stubRepo {
	r := &stubRepo{teams: make(map[string]*team.Team)}
	for _, t := range teams {
		r.teams[t.ID] = t
	}
	return r
}

func (r *stubRepo) Create(_ context.Context, t *team.Team) error {
	r.created = append(r.created, t)
	r.teams[t.ID] = t
	return nil
}

func (r *stubRepo) GetByID(
	_ context.Context,
	tenantID *string,
	id string,
) (*team.Team, error) {
	t, ok := r.teams[id]
	if !ok || (tenantID != nil && t.TenantID != *tenantID) {
		return nil, fmt.Errorf("get team: %w", core.ErrNotFound)
	}
	copied := *t
	return &copied, nil
}

func (r *stubRepo) Update(_ context.Context, t *team.Team) error {
	stored, ok := r.teams[t.ID]
	if !ok {
		return fmt.Errorf("update team: %w", core.ErrNotFound)
	}
	*stored = *t
	return nil
}

func (r *stubRepo) Archive(
	_ context.Context,
	tenantID *string,
	id string,
) error {
	t, ok := r.teams[id]
	if !ok || (tenantID != nil && t.TenantID != *tenantID) {
		return fmt.Errorf("archive team: %w", core.ErrNotFound)
	}
	r.archived = append(r.archived, id)
	return nil
}

func (r *stubRepo) Restore(
	_ context.Context,
	tenantID *string,
	id string,
) error {
	t, ok := r.teams[id]
	if !ok || (tenantID != nil && t.TenantID != *tenantID) {
		return fmt.Errorf("restore team: %w", core.ErrNotFound)
	}
	r.restored = append(r.restored, id)
	return nil
}

func (r *stubRepo) List(
	_ context.Context,
	params team.ListTeamsParams,
) ([]team.Team, int, error) {
	r.lastList = params
	return nil, 0, nil
}

var _ team.Repository = (*stubRepo)(nil)

func newTestService(repo team.Repository) *team.Service {
	gate := authz.NewGate(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return team.NewService(repo, gate, validation.New(), nil)
}

func scopeWith(roles []rbac.Role, tenantID, override *string) *tenancy.Scope {
	effective, _ := rbac.Effective(roles)
	return &tenancy.Scope{
		UserID:          "user-1",
		SessionID:       "session-1",
		Roles:           roles,
		EffectiveRole:   effective,
		ProfileTenantID: tenantID,
		TenantOverride:  override,
	}
}

func TestListPinsMembersToTheirTenant(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	member := scopeWith([]rbac.Role{rbac.RoleMember}, strptr(tenantA), nil)

	_, _, err := svc.List(context.Background(), member,
		team.ListTeamsParams{TenantID: strptr(tenantB)})
	require.NoError(t, err)
	require.NotNil(t, repo.lastList.TenantID)
	assert.Equal(t, tenantA, *repo.lastList.TenantID,
		"requested foreign tenant is overridden by the caller's own")
}

func TestListRootHonorsOverride(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	root := scopeWith([]rbac.Role{rbac.RoleRoot}, nil, strptr(tenantB))
	_, _, err := svc.List(context.Background(), root, team.ListTeamsParams{})
	require.NoError(t, err)
	require.NotNil(t, repo.lastList.TenantID)
	assert.Equal(t, tenantB, *repo.lastList.TenantID)

	unscoped := scopeWith([]rbac.Role{rbac.RoleRoot}, nil, nil)
	_, _, err = svc.List(context.Background(), unscoped, team.ListTeamsParams{})
	require.NoError(t, err)
	assert.Nil(t, repo.lastList.TenantID, "unscoped root lists all tenants")
}

func TestCreateRequiresLeader(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	member := scopeWith([]rbac.Role{rbac.RoleMember}, strptr(tenantA), nil)
	_, err := svc.Create(context.Background(), member,
		team.CreateTeamRequest{Name: "Platform", Slug: "platform"})
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Empty(t, repo.created)

	leader := scopeWith([]rbac.Role{rbac.RoleLeader}, strptr(tenantA), nil)
	created, err := svc.Create(context.Background(), leader,
		team.CreateTeamRequest{Name: "Platform", Slug: "platform"})
	require.NoError(t, err)
	assert.Equal(t, tenantA, created.TenantID)
}

func TestCreateUnscopedRootNeedsOverride(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	unscoped := scopeWith([]rbac.Role{rbac.RoleRoot}, nil, nil)
	_, err := svc.Create(context.Background(), unscoped,
		team.CreateTeamRequest{Name: "Platform", Slug: "platform"})
	assert.ErrorIs(t, err, core.ErrInvalidInput,
		"tenant-scoped rows cannot be created without a tenant")

	viewing := scopeWith([]rbac.Role{rbac.RoleRoot}, nil, strptr(tenantB))
	created, err := svc.Create(context.Background(), viewing,
		team.CreateTeamRequest{Name: "Platform", Slug: "platform"})
	require.NoError(t, err)
	assert.Equal(t, tenantB, created.TenantID,
		"override scopes root writes to the selected tenant")
}

func TestCreateValidatesSlug(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	leader := scopeWith([]rbac.Role{rbac.RoleLeader}, strptr(tenantA), nil)
	_, err := svc.Create(context.Background(), leader,
		team.CreateTeamRequest{Name: "Platform", Slug: "Bad Slug"})
	assert.ErrorIs(t, err, core.ErrValidationFailed)
	assert.Empty(t, repo.created, "invalid input must not reach persistence")
}

func TestUpdateHidesForeignTeams(t *testing.T) {
	foreign := &team.Team{
		ID:       "team-b",
		TenantID: tenantB,
		Name:     "Foreign",
		Slug:     "foreign",
	}
	repo := newStubRepo(foreign)
	svc := newTestService(repo)

	leader := scopeWith([]rbac.Role{rbac.RoleLeader}, strptr(tenantA), nil)
	_, err := svc.Update(context.Background(), leader, "team-b",
		team.UpdateTeamRequest{Name: strptr("Hijacked")})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, "Foreign", repo.teams["team-b"].Name)
}

func TestArchiveAndRestore(t *testing.T) {
	own := &team.Team{
		ID:       "team-a",
		TenantID: tenantA,
		Name:     "Platform",
		Slug:     "platform",
	}
	repo := newStubRepo(own)
	svc := newTestService(repo)

	leader := scopeWith([]rbac.Role{rbac.RoleLeader}, strptr(tenantA), nil)

	require.NoError(t, svc.Archive(context.Background(), leader, "team-a"))
	assert.Equal(t, []string{"team-a"}, repo.archived)

	require.NoError(t, svc.Restore(context.Background(), leader, "team-a"))
	assert.Equal(t, []string{"team-a"}, repo.restored)

	member := scopeWith([]rbac.Role{rbac.RoleMember}, strptr(tenantA), nil)
	err := svc.Archive(context.Background(), member, "team-a")
	assert.ErrorIs(t, err, core.ErrForbidden)
}
