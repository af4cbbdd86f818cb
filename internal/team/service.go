// AngelaMos | 2026
// service.go

package team

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

type Service struct {
	repo     Repository
	gate     *authz.Gate
	rules    *validation.Validator
	recorder *audit.Recorder
}

func NewService(
	repo Repository,
	gate *authz.Gate,
	rules *validation.Validator,
	recorder *audit.Recorder,
) *Service {
	return &Service{
		repo:     repo,
		gate:     gate,
		rules:    rules,
		recorder: recorder,
	}
}

func (s *Service) List(
	ctx context.Context,
	scope *tenancy.Scope,
	params ListTeamsParams,
) ([]Team, int, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleMember); err != nil {
		return nil, 0, err
	}

	params.TenantID = s.gate.TenantFilter(ctx, scope, params.TenantID)

	return s.repo.List(ctx, params)
}

func (s *Service) Get(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
) (*Team, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleMember); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, scope.EffectiveTenant(), id)
}

// Create requires an effective tenant: a root session must select one via
// the override before seeding tenant-scoped data.
func (s *Service) Create(
	ctx context.Context,
	scope *tenancy.Scope,
	req CreateTeamRequest,
) (*Team, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	tenantID := scope.EffectiveTenant()
	if tenantID == nil {
		return nil, fmt.Errorf(
			"create team: tenant scope required: %w",
			core.ErrInvalidInput,
		)
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)

	if err := s.validate(req.Name, req.Slug, req.Description); err != nil {
		return nil, err
	}

	t := &Team{
		ID:          uuid.New().String(),
		TenantID:    *tenantID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionCreated, t.ID, map[string]any{
		"slug": t.Slug,
	})

	return t, nil
}

func (s *Service) Update(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
	req UpdateTeamRequest,
) (*Team, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, scope.EffectiveTenant(), id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		t.Slug = strings.TrimSpace(*req.Slug)
	}
	if req.Description != nil {
		t.Description = req.Description
	}

	if err := s.validate(t.Name, t.Slug, t.Description); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionUpdated, t.ID, nil)

	return t, nil
}

func (s *Service) Archive(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
) error {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return err
	}

	if err := s.repo.Archive(ctx, scope.EffectiveTenant(), id); err != nil {
		return err
	}

	s.record(ctx, scope, audit.ActionArchived, id, nil)
	return nil
}

func (s *Service) Restore(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
) error {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return err
	}

	if err := s.repo.Restore(ctx, scope.EffectiveTenant(), id); err != nil {
		return err
	}

	s.record(ctx, scope, audit.ActionReactivated, id, nil)
	return nil
}

func (s *Service) validate(name, slug string, description *string) error {
	data := map[string]any{
		"name": name,
		"slug": slug,
	}
	if description != nil {
		data["description"] = *description
	}

	result, err := s.rules.Validate(validation.EntityTeam, data)
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
	action, teamID string,
	details map[string]any,
) {
	if s.recorder == nil {
		return
	}

	s.recorder.Record(ctx, audit.Entry{
		ActorUserID: scope.UserID,
		TenantID:    scope.EffectiveTenant(),
		Action:      action,
		EntityType:  audit.EntityTeam,
		EntityID:    &teamID,
		Details:     details,
	})
}
