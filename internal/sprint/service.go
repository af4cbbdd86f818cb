// AngelaMos | 2026
// service.go

package sprint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/northstarhq/northstar/internal/audit"
	"github.com/northstarhq/northstar/internal/authz"
	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/rbac"
	"github.com/northstarhq/northstar/internal/tenancy"
	"github.com/northstarhq/northstar/internal/validation"
)

const dateLayout = "2006-01-02"

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
	params ListSprintsParams,
) ([]Sprint, int, error) {
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
) (*Sprint, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleMember); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, scope.EffectiveTenant(), id)
}

func (s *Service) Create(
	ctx context.Context,
	scope *tenancy.Scope,
	req CreateSprintRequest,
) (*Sprint, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	tenantID := scope.EffectiveTenant()
	if tenantID == nil {
		return nil, fmt.Errorf(
			"create sprint: tenant scope required: %w",
			core.ErrInvalidInput,
		)
	}

	req.Name = strings.TrimSpace(req.Name)

	if err := s.validate(req.Name, req.StartsOn, req.EndsOn, req.TeamID); err != nil {
		return nil, err
	}

	startsOn, endsOn, err := parseDateRange(req.StartsOn, req.EndsOn)
	if err != nil {
		return nil, err
	}

	sp := &Sprint{
		ID:       uuid.New().String(),
		TenantID: *tenantID,
		TeamID:   req.TeamID,
		Name:     req.Name,
		StartsOn: startsOn,
		EndsOn:   endsOn,
		Status:   StatusPlanned,
	}

	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionCreated, sp.ID, map[string]any{
		"starts_on": req.StartsOn,
		"ends_on":   req.EndsOn,
	})

	return sp, nil
}

func (s *Service) Update(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
	req UpdateSprintRequest,
) (*Sprint, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	sp, err := s.repo.GetByID(ctx, scope.EffectiveTenant(), id)
	if err != nil {
		return nil, err
	}

	if sp.Status == StatusClosed {
		return nil, fmt.Errorf(
			"update sprint: closed sprints are immutable: %w",
			core.ErrInvalidInput,
		)
	}

	if req.Name != nil {
		sp.Name = strings.TrimSpace(*req.Name)
	}
	if req.TeamID != nil {
		sp.TeamID = req.TeamID
	}

	startsRaw := sp.StartsOn.Format(dateLayout)
	endsRaw := sp.EndsOn.Format(dateLayout)
	if req.StartsOn != nil {
		startsRaw = *req.StartsOn
	}
	if req.EndsOn != nil {
		endsRaw = *req.EndsOn
	}

	if err := s.validate(sp.Name, startsRaw, endsRaw, sp.TeamID); err != nil {
		return nil, err
	}

	sp.StartsOn, sp.EndsOn, err = parseDateRange(startsRaw, endsRaw)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, sp); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionUpdated, sp.ID, nil)

	return sp, nil
}

// ChangeStatus advances the sprint along planned, active, closed. Any other
// move is rejected before persistence.
func (s *Service) ChangeStatus(
	ctx context.Context,
	scope *tenancy.Scope,
	id string,
	next Status,
) (*Sprint, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleLeader); err != nil {
		return nil, err
	}

	if !next.Valid() {
		return nil, fmt.Errorf(
			"change sprint status: unknown status %q: %w",
			next,
			core.ErrInvalidInput,
		)
	}

	sp, err := s.repo.GetByID(ctx, scope.EffectiveTenant(), id)
	if err != nil {
		return nil, err
	}

	if !sp.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf(
			"change sprint status: %s cannot become %s: %w",
			sp.Status,
			next,
			core.ErrInvalidInput,
		)
	}

	err = s.repo.UpdateStatus(ctx, scope.EffectiveTenant(), id, sp.Status, next)
	if err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionStatusChanged, sp.ID, map[string]any{
		"from": sp.Status,
		"to":   next,
	})

	sp.Status = next
	return sp, nil
}

func (s *Service) validate(
	name, startsOn, endsOn string,
	teamID *string,
) error {
	data := map[string]any{
		"name":      name,
		"starts_on": startsOn,
		"ends_on":   endsOn,
	}
	if teamID != nil {
		data["team_id"] = *teamID
	}

	result, err := s.rules.Validate(validation.EntitySprint, data)
	if err != nil {
		return err
	}

	if !result.Valid {
		return &validation.Error{Result: result}
	}

	return nil
}

// parseDateRange turns validated ISO strings into dates and enforces that
// the sprint does not end before it starts.
func parseDateRange(startsOn, endsOn string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startsOn)
	if err != nil {
		return time.Time{}, time.Time{}, fieldFailure(
			"starts_on", "date", "must be a real calendar date")
	}

	end, err := time.Parse(dateLayout, endsOn)
	if err != nil {
		return time.Time{}, time.Time{}, fieldFailure(
			"ends_on", "date", "must be a real calendar date")
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fieldFailure(
			"ends_on", "range", "must not be before starts_on")
	}

	return start, end, nil
}

func fieldFailure(field, code, message string) *validation.Error {
	return &validation.Error{Result: &validation.Result{
		Valid: false,
		Errors: []validation.FieldError{
			{Field: field, Code: code, Message: message},
		},
	}}
}

func (s *Service) record(
	ctx context.Context,
	scope *tenancy.Scope,
	action, sprintID string,
	details map[string]any,
) {
	if s.recorder == nil {
		return
	}

	s.recorder.Record(ctx, audit.Entry{
		ActorUserID: scope.UserID,
		TenantID:    scope.EffectiveTenant(),
		Action:      action,
		EntityType:  audit.EntitySprint,
		EntityID:    &sprintID,
		Details:     details,
	})
}
