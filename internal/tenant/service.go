// AngelaMos | 2026
// service.go

package tenant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/northstarhq/northstar/internal/audit"
	"github.com/northstarhq/northstar/internal/authz"
	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/rbac"
	"github.com/northstarhq/northstar/internal/tenancy"
	"github.com/northstarhq/northstar/internal/validation"
)

// OverrideStore is the session-scoped "view as tenant" switch. Implemented
// by tenancy.OverrideStore.
type OverrideStore interface {
	Set(ctx context.Context, sessionID, candidate string) error
	Clear(ctx context.Context, sessionID string) error
}

type Service struct {
	repo      Repository
	gate      *authz.Gate
	overrides OverrideStore
	rules     *validation.Validator
	recorder  *audit.Recorder
}

func NewService(
	repo Repository,
	gate *authz.Gate,
	overrides OverrideStore,
	rules *validation.Validator,
	recorder *audit.Recorder,
) *Service {
	return &Service{
		repo:      repo,
		gate:      gate,
		overrides: overrides,
		rules:     rules,
		recorder:  recorder,
	}
}

func (s *Service) Create(
	ctx context.Context,
	scope *tenancy.Scope,
	req CreateTenantRequest,
) (*Tenant, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleRoot); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)

	if err := s.validate(req.Name, req.Slug); err != nil {
		return nil, err
	}

	t := &Tenant{
		ID:   uuid.New().String(),
		Name: req.Name,
		Slug: req.Slug,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionCreated, t.ID, map[string]any{
		"slug": t.Slug,
	})

	return t, nil
}

// Get serves any member of the tenant plus root. Other tenants' records
// read as missing, never as forbidden.
func (s *Service) Get(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
) (*Tenant, error) {
	if scope == nil {
		return nil, fmt.Errorf("get tenant: %w", core.ErrUnauthorized)
	}

	if _, err := rbac.Effective(scope.Roles); err != nil {
		return nil, err
	}

	if !scope.IsTenantMember(id) {
		return nil, fmt.Errorf("get tenant: %w", core.ErrNotFound)
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
	req UpdateTenantRequest,
) (*Tenant, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleRoot); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		t.Slug = strings.TrimSpace(*req.Slug)
	}

	if err := s.validate(t.Name, t.Slug); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionUpdated, t.ID, nil)

	return t, nil
}

// Deactivate is the delete operation: rows stay, is_active flips. Data in
// a deactivated tenant remains intact for a later reactivation.
func (s *Service) Deactivate(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
) error {
	if err := s.gate.Require(ctx, scope, rbac.RoleRoot); err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}

	s.record(ctx, scope, audit.ActionDeactivated, id, nil)
	return nil
}

func (s *Service) Reactivate(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
) error {
	if err := s.gate.Require(ctx, scope, rbac.RoleRoot); err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return err
	}

	s.record(ctx, scope, audit.ActionReactivated, id, nil)
	return nil
}

func (s *Service) List(
	ctx context.Context,
	scope *tenancy.Scope,
	params ListTenantsParams,
) ([]Tenant, int, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleRoot); err != nil {
		return nil, 0, err
	}

	return s.repo.List(ctx, params)
}

// SetOverride points the root session at a tenant. Only the format is
// checked; pointing at an empty or unknown tenant simply shows no data.
func (s *Service) SetOverride(
	ctx context.Context,
	scope *tenancy.Scope,
	candidate string,
) error {
	if err := s.gate.Require(ctx, scope, rbac.RoleRoot); err != nil {
		return err
	}

	if err := s.overrides.Set(ctx, scope.SessionID, candidate); err != nil {
		return err
	}

	s.record(
		ctx,
		scope,
		audit.ActionOverrideSet,
		scope.SessionID,
		map[string]any{"tenant_id": strings.ToLower(candidate)},
	)
	return nil
}

func (s *Service) ClearOverride(
	ctx context.Context,
	scope *tenancy.Scope,
) error {
	if err := s.gate.Require(ctx, scope, rbac.RoleRoot); err != nil {
		return err
	}

	if err := s.overrides.Clear(ctx, scope.SessionID); err != nil {
		return err
	}

	s.record(ctx, scope, audit.ActionOverrideCleared, scope.SessionID, nil)
	return nil
}

func (s *Service) validate(name, slug string) error {
	result, err := s.rules.Validate(validation.EntityTenant, map[string]any{
		"name": name,
		"slug": slug,
	})
	if err != nil {
		return err
	}

	if !result.Valid {
		return &validation.Error{Result: result}
	}

	return nil
}

func (s *Service) record(
	ctx context.Context,
	scope *tenancy.Scope,
	action, entityID string,
	details map[string]any,
) {
	if s.recorder == nil {
		return
	}

	entityType := audit.EntityTenant
	if action == audit.ActionOverrideSet ||
		action == audit.ActionOverrideCleared {
		entityType = audit.EntitySession
	}

	s.recorder.Record(ctx, audit.Entry{
		ActorUserID: scope.UserID,
		TenantID:    scope.EffectiveTenant(),
		Action:      action,
		EntityType:  entityType,
		EntityID:    &entityID,
		Details:     details,
	})
}
