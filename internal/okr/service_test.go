// AngelaMos | 2026
// service_test.go

package okr_test

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
	"github.com/northstarhq/northstar/internal/okr"
	"github.com/northstarhq/northstar/internal/rbac"
	"github.com/northstarhq/northstar/internal/tenancy"
	"github.com/northstarhq/northstar/internal/validation"
)

const (
	tenantA = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	tenantB = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
)

func strptr(s string) *string { return &s }

type stubRepo struct {
	objectives map[string]*okr.Objective
	keyResults map[string]*okr.KeyResult

	createdObjectives []*okr.Objective
	createdKeyResults []*okr.KeyResult
	statusChanges     []okr.Status
	deletedKeyResults []string
	progressUpdates   []float64
	lastList          okr.ListObjectivesParams
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		objectives: make(map[string]*okr.Objective),
		keyResults: make(map[string]*okr.KeyResult),
	}
}

func (r *stubRepo) addObjective(o *okr.Objective) *stubRepo {
	r.objectives[o.ID] = o
	return r
}

func (r *stubRepo) addKeyResult(kr *okr.KeyResult) *stubRepo {
	r.keyResults[kr.ID] = kr
	return r
}

func (r *stubRepo) CreateObjective(_ context.Context, o *okr.Objective) error {
	r.createdObjectives = append(r.createdObjectives, o)
	r.objectives[o.ID] = o
	return nil
}

func (r *stubRepo) GetObjective(
	_ context.Context,
	tenantID *string,
	id string,
) (*okr.Objective, error) {
	o, ok := r.objectives[id]
	if !ok || (tenantID != nil && o.TenantID != *tenantID) {
		return nil, fmt.Errorf("get okr: %w", core.ErrNotFound)
	}
	copied := *o
	return &copied, nil
}

func (r *stubRepo) UpdateObjective(_ context.Context, o *okr.Objective) error {
	stored, ok := r.objectives[o.ID]
	if !ok {
		return fmt.Errorf("update okr: %w", core.ErrNotFound)
	}
	*stored = *o
	return nil
}

func (r *stubRepo) UpdateStatus(
	_ context.Context,
	tenantID *string,
	id string,
	to okr.Status,
) error {
	o, ok := r.objectives[id]
	if !ok || (tenantID != nil && o.TenantID != *tenantID) {
		return fmt.Errorf("update okr status: %w", core.ErrNotFound)
	}
	o.Status = to
	r.statusChanges = append(r.statusChanges, to)
	return nil
}

func (r *stubRepo) ListObjectives(
	_ context.Context,
	params okr.ListObjectivesParams,
) ([]okr.Objective, int, error) {
	r.lastList = params
	return nil, 0, nil
}

func (r *stubRepo) CreateKeyResult(_ context.Context, kr *okr.KeyResult) error {
	r.createdKeyResults = append(r.createdKeyResults, kr)
	r.keyResults[kr.ID] = kr
	return nil
}

func (r *stubRepo) GetKeyResult(
	_ context.Context,
	tenantID *string,
	id string,
) (*okr.KeyResult, error) {
	kr, ok := r.keyResults[id]
	if !ok || (tenantID != nil && kr.TenantID != *tenantID) {
		return nil, fmt.Errorf("get key result: %w", core.ErrNotFound)
	}
	copied := *kr
	return &copied, nil
}

func (r *stubRepo) UpdateKeyResult(_ context.Context, kr *okr.KeyResult) error {
	stored, ok := r.keyResults[kr.ID]
	if !ok {
		return fmt.Errorf("update key result: %w", core.ErrNotFound)
	}
	*stored = *kr
	return nil
}

func (r *stubRepo) DeleteKeyResult(
	_ context.Context,
	tenantID *string,
	id string,
) error {
	kr, ok := r.keyResults[id]
	if !ok || (tenantID != nil && kr.TenantID != *tenantID) {
		return fmt.Errorf("delete key result: %w", core.ErrNotFound)
	}
	delete(r.keyResults, id)
	r.deletedKeyResults = append(r.deletedKeyResults, id)
	return nil
}

func (r *stubRepo) UpdateProgress(
	_ context.Context,
	tenantID *string,
	id string,
	value float64,
) (*okr.KeyResult, error) {
	kr, ok := r.keyResults[id]
	if !ok || (tenantID != nil && kr.TenantID != *tenantID) {
		return nil, fmt.Errorf("update key result progress: %w", core.ErrNotFound)
	}
	kr.CurrentValue = value
	r.progressUpdates = append(r.progressUpdates, value)
	copied := *kr
	return &copied, nil
}

var _ okr.Repository = (*stubRepo)(nil)

func newTestService(repo okr.Repository) *okr.Service {
	gate := authz.NewGate(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return okr.NewService(repo, gate, validation.New(), nil)
}

func scopeWith(role rbac.Role, tenantID string) *tenancy.Scope {
	return &tenancy.Scope{
		UserID:          "user-" + string(role),
		Roles:           []rbac.Role{role},
		EffectiveRole:   role,
		ProfileTenantID: strptr(tenantID),
	}
}

func draftObjective(id, tenantID string) *okr.Objective {
	return &okr.Objective{
		ID:       id,
		TenantID: tenantID,
		Title:    "Grow self-serve revenue",
		Status:   okr.StatusDraft,
	}
}

func TestCreateObjectiveRequiresLeader(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), scopeWith(rbac.RoleMember, tenantA),
		okr.CreateObjectiveRequest{Title: "Grow self-serve revenue"})
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Empty(t, repo.createdObjectives)

	created, err := svc.Create(context.Background(), scopeWith(rbac.RoleLeader, tenantA),
		okr.CreateObjectiveRequest{Title: "Grow self-serve revenue"})
	require.NoError(t, err)
	assert.Equal(t, okr.StatusDraft, created.Status)
	assert.Equal(t, tenantA, created.TenantID)
}

func TestCreateObjectiveRejectsShortTitle(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), scopeWith(rbac.RoleLeader, tenantA),
		okr.CreateObjectiveRequest{Title: "Go"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidationFailed)

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Result.Errors[0].Field)
	assert.Empty(t, repo.createdObjectives)
}

func TestListPinsMembersToTheirTenant(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	_, _, err := svc.List(context.Background(), scopeWith(rbac.RoleMember, tenantA),
		okr.ListObjectivesParams{TenantID: strptr(tenantB)})
	require.NoError(t, err)
	require.NotNil(t, repo.lastList.TenantID)
	assert.Equal(t, tenantA, *repo.lastList.TenantID)
}

func TestGetHidesForeignObjectives(t *testing.T) {
	repo := newStubRepo().addObjective(draftObjective("okr-b", tenantB))
	svc := newTestService(repo)

	_, err := svc.Get(context.Background(), scopeWith(rbac.RoleMember, tenantA), "okr-b")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateArchivedObjectiveRejected(t *testing.T) {
	archived := draftObjective("okr-1", tenantA)
	archived.Status = okr.StatusArchived
	repo := newStubRepo().addObjective(archived)
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), scopeWith(rbac.RoleLeader, tenantA),
		"okr-1", okr.UpdateObjectiveRequest{Title: strptr("Renamed objective")})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, "Grow self-serve revenue", repo.objectives["okr-1"].Title)
}

func TestChangeStatusValidatesName(t *testing.T) {
	repo := newStubRepo().addObjective(draftObjective("okr-1", tenantA))
	svc := newTestService(repo)

	_, err := svc.ChangeStatus(context.Background(),
		scopeWith(rbac.RoleLeader, tenantA), "okr-1", okr.Status("paused"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Empty(t, repo.statusChanges)

	got, err := svc.ChangeStatus(context.Background(),
		scopeWith(rbac.RoleLeader, tenantA), "okr-1", okr.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, okr.StatusActive, got.Status)
}

func TestChangeStatusToSameIsNoop(t *testing.T) {
	repo := newStubRepo().addObjective(draftObjective("okr-1", tenantA))
	svc := newTestService(repo)

	got, err := svc.ChangeStatus(context.Background(),
		scopeWith(rbac.RoleLeader, tenantA), "okr-1", okr.StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, okr.StatusDraft, got.Status)
	assert.Empty(t, repo.statusChanges)
}

func TestAddKeyResultInheritsObjectiveTenant(t *testing.T) {
	repo := newStubRepo().addObjective(draftObjective("okr-1", tenantA))
	svc := newTestService(repo)

	kr, err := svc.AddKeyResult(context.Background(),
		scopeWith(rbac.RoleLeader, tenantA), "okr-1",
		okr.CreateKeyResultRequest{
			Title:       "Monthly active teams",
			StartValue:  0,
			TargetValue: 200,
		})
	require.NoError(t, err)
	assert.Equal(t, tenantA, kr.TenantID)
	assert.Equal(t, "okr-1", kr.OKRID)
}

func TestAddKeyResultToForeignObjectiveFails(t *testing.T) {
	repo := newStubRepo().addObjective(draftObjective("okr-b", tenantB))
	svc := newTestService(repo)

	_, err := svc.AddKeyResult(context.Background(),
		scopeWith(rbac.RoleLeader, tenantA), "okr-b",
		okr.CreateKeyResultRequest{
			Title:       "Monthly active teams",
			TargetValue: 200,
		})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, repo.createdKeyResults)
}

func TestMemberUpdatesProgressButNotDefinition(t *testing.T) {
	repo := newStubRepo().
		addObjective(draftObjective("okr-1", tenantA)).
		addKeyResult(&okr.KeyResult{
			ID:          "kr-1",
			OKRID:       "okr-1",
			TenantID:    tenantA,
			Title:       "Monthly active teams",
			TargetValue: 200,
		})
	svc := newTestService(repo)
	member := scopeWith(rbac.RoleMember, tenantA)

	kr, err := svc.UpdateProgress(context.Background(), member, "kr-1",
		okr.UpdateProgressRequest{CurrentValue: 80})
	require.NoError(t, err)
	assert.InDelta(t, 80.0, kr.CurrentValue, 0.0001)
	assert.InDelta(t, 40.0, kr.Progress, 0.0001)

	_, err = svc.UpdateKeyResult(context.Background(), member, "kr-1",
		okr.UpdateKeyResultRequest{TargetValue: float64ptr(500)})
	assert.ErrorIs(t, err, core.ErrForbidden,
		"members move the needle; only leaders redefine it")

	err = svc.DeleteKeyResult(context.Background(), member, "kr-1")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestUpdateProgressScopedToTenant(t *testing.T) {
	repo := newStubRepo().addKeyResult(&okr.KeyResult{
		ID:          "kr-b",
		OKRID:       "okr-b",
		TenantID:    tenantB,
		Title:       "Monthly active teams",
		TargetValue: 200,
	})
	svc := newTestService(repo)

	_, err := svc.UpdateProgress(context.Background(),
		scopeWith(rbac.RoleMember, tenantA), "kr-b",
		okr.UpdateProgressRequest{CurrentValue: 80})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, repo.progressUpdates)
}

func TestDeleteKeyResult(t *testing.T) {
	repo := newStubRepo().addKeyResult(&okr.KeyResult{
		ID:          "kr-1",
		OKRID:       "okr-1",
		TenantID:    tenantA,
		Title:       "Monthly active teams",
		TargetValue: 200,
	})
	svc := newTestService(repo)

	err := svc.DeleteKeyResult(context.Background(),
		scopeWith(rbac.RoleLeader, tenantA), "kr-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"kr-1"}, repo.deletedKeyResults)
}

func float64ptr(f float64) *float64 { return &f }
