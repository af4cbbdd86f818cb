// AngelaMos | 2026
// service.go

package okr

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
	params ListObjectivesParams,
) ([]Objective, int, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleMember); err != nil {
		return nil, 0, err
	}

	params.TenantID = s.gate.TenantFilter(ctx, scope, params.TenantID)

	return s.repo.ListObjectives(ctx, params)
}

func (s *Service) Get(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
) (*Objective, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleMember); err != nil {
		return nil, err
	}

	return s.repo.GetObjective(ctx, scope.EffectiveTenant(), id)
}

func (s *Service) Create(
	ctx context.Context,
	scope *tenancy.Scope,
	req CreateObjectiveRequest,
) (*Objective, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	tenantID := scope.EffectiveTenant()
	if tenantID == nil {
		return nil, fmt.Errorf(
			"create okr: tenant scope required: %w",
			core.ErrInvalidInput,
		)
	}

	req.Title = strings.TrimSpace(req.Title)

	o := &Objective{
		ID:             uuid.New().String(),
		TenantID:       *tenantID,
		TeamID:         req.TeamID,
		SprintID:       req.SprintID,
		OwnerProfileID: req.OwnerProfileID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         StatusDraft,
	}

	if err := s.validateObjective(o); err != nil {
		return nil, err
	}

	if err := s.repo.CreateObjective(ctx, o); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionCreated, audit.EntityOKR, o.ID, map[string]any{
		"title": o.Title,
	})

	return o, nil
}

func (s *Service) Update(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
	req UpdateObjectiveRequest,
) (*Objective, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	o, err := s.repo.GetObjective(ctx, scope.EffectiveTenant(), id)
	if err != nil {
		return nil, err
	}

	if o.Status == StatusArchived {
		return nil, fmt.Errorf(
			"update okr: archived okrs are immutable: %w",
			core.ErrInvalidInput,
		)
	}

	if req.Title != nil {
		o.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		o.Description = req.Description
	}
	if req.TeamID != nil {
		o.TeamID = req.TeamID
	}
	if req.SprintID != nil {
		o.SprintID = req.SprintID
	}
	if req.OwnerProfileID != nil {
		o.OwnerProfileID = req.OwnerProfileID
	}

	if err := s.validateObjective(o); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateObjective(ctx, o); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionUpdated, audit.EntityOKR, o.ID, nil)

	return o, nil
}

// ChangeStatus moves an objective to any valid status. Unlike sprints
// there is no ladder; archived objectives can be reactivated.
func (s *Service) ChangeStatus(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
	next Status,
) (*Objective, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	if !next.Valid() {
		return nil, fmt.Errorf(
			"change okr status: unknown status %q: %w",
			next,
			core.ErrInvalidInput,
		)
	}

	o, err := s.repo.GetObjective(ctx, scope.EffectiveTenant(), id)
	if err != nil {
		return nil, err
	}

	if o.Status == next {
		return o, nil
	}

	prev := o.Status
	err = s.repo.UpdateStatus(ctx, scope.EffectiveTenant(), id, next)
	if err != nil {
		return nil, err
	}
	o.Status = next

	action := audit.ActionStatusChanged
	if next == StatusArchived {
		action = audit.ActionArchived
	}
	s.record(ctx, scope, action, audit.EntityOKR, o.ID, map[string]any{
		"from": string(prev),
		"to":   string(next),
	})

	return o, nil
}

func (s *Service) AddKeyResult(
	ctx context.Context,
	scope *tenancy.Scope,
	okrID string,
	req CreateKeyResultRequest,
) (*KeyResult, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	o, err := s.repo.GetObjective(ctx, scope.EffectiveTenant(), okrID)
	if err != nil {
		return nil, err
	}

	req.Title = strings.TrimSpace(req.Title)

	kr := &KeyResult{
		ID:           uuid.New().String(),
		OKRID:        o.ID,
		TenantID:     o.TenantID,
		Title:        req.Title,
		MetricUnit:   req.MetricUnit,
		StartValue:   req.StartValue,
		TargetValue:  req.TargetValue,
		CurrentValue: req.CurrentValue,
	}

	if err := s.validateKeyResult(kr); err != nil {
		return nil, err
	}

	if err := s.repo.CreateKeyResult(ctx, kr); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionCreated, audit.EntityKeyResult, kr.ID,
		map[string]any{"okr_id": kr.OKRID, "title": kr.Title})

	return kr, nil
}

func (s *Service) UpdateKeyResult(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
	req UpdateKeyResultRequest,
) (*KeyResult, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	kr, err := s.repo.GetKeyResult(ctx, scope.EffectiveTenant(), id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		kr.Title = strings.TrimSpace(*req.Title)
	}
	if req.MetricUnit != nil {
		kr.MetricUnit = req.MetricUnit
	}
	if req.StartValue != nil {
		kr.StartValue = *req.StartValue
	}
	if req.TargetValue != nil {
		kr.TargetValue = *req.TargetValue
	}

	if err := s.validateKeyResult(kr); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateKeyResult(ctx, kr); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionUpdated, audit.EntityKeyResult, kr.ID, nil)

	return kr, nil
}

func (s *Service) DeleteKeyResult(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
) error {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return err
	}

	kr, err := s.repo.GetKeyResult(ctx, scope.EffectiveTenant(), id)
	if err != nil {
		return err
	}

	err = s.repo.DeleteKeyResult(ctx, scope.EffectiveTenant(), id)
	if err != nil {
		return err
	}

	s.record(ctx, scope, audit.ActionDeleted, audit.EntityKeyResult, kr.ID,
		map[string]any{"okr_id": kr.OKRID})

	return nil
}

// UpdateProgress is the one OKR mutation open to members: moving the
// current value of a key result inside their own tenant.
func (s *Service) UpdateProgress(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
	req UpdateProgressRequest,
) (*KeyResult, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleMember); err != nil {
		return nil, err
	}

	kr, err := s.repo.UpdateProgress(
		ctx,
		scope.EffectiveTenant(),
		id,
		req.CurrentValue,
	)
	if err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionProgressUpdated, audit.EntityKeyResult,
		kr.ID, map[string]any{
			"okr_id":        kr.OKRID,
			"current_value": kr.CurrentValue,
		})

	return kr, nil
}

func (s *Service) validateObjective(o *Objective) error {
	data := map[string]any{
		"title":  o.Title,
		"status": string(o.Status),
	}
	if o.Description != nil {
		data["description"] = *o.Description
	}
	if o.TeamID != nil {
		data["team_id"] = *o.TeamID
	}
	if o.SprintID != nil {
		data["sprint_id"] = *o.SprintID
	}
	if o.OwnerProfileID != nil {
		data["owner_profile_id"] = *o.OwnerProfileID
	}

	result, err := s.rules.Validate(validation.EntityOKR, data)
	if err != nil {
		return fmt.Errorf("validate okr: %w", err)
	}
	if !result.Valid {
		return &validation.Error{Result: result}
	}

	return nil
}

func (s *Service) validateKeyResult(kr *KeyResult) error {
	data := map[string]any{
		"okr_id":        kr.OKRID,
		"title":         kr.Title,
		"start_value":   kr.StartValue,
		"target_value":  kr.TargetValue,
		"current_value": kr.CurrentValue,
	}
	if kr.MetricUnit != nil {
		data["metric_unit"] = *kr.MetricUnit
	}

	result, err := s.rules.Validate(validation.EntityKeyResult, data)
	if err != nil {
		return fmt.Errorf("validate key result: %w", err)
	}
	if !result.Valid {
		return &validation.Error{Result: result}
	}

	return nil
}

func (s *Service) record(
	ctx context.Context,
	scope *tenancy.Scope,
	action, entityType, entityID string,
	details map[string]any,
) {
	if s.recorder == nil {
		return
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
