// AngelaMos | 2026
// service.go

package audit

import (
	"context"

	"github.com/northstarhq/northstar/internal/authz"
	"github.com/northstarhq/northstar/internal/rbac"
	"github.com/northstarhq/northstar/internal/tenancy"
)

type Service struct {
	recorder *Recorder
	repo     Repository
	gate     *authz.Gate
}

func NewService(recorder *Recorder, repo Repository, gate *authz.Gate) *Service {
	return &Service{
		recorder: recorder,
		repo:     repo,
		gate:     gate,
	}
}

// Record queues an audit entry on behalf of the caller. It intentionally
// returns nothing: the caller's request must not fail because the trail
// is behind.
func (s *Service) Record(
	ctx context.Context,
	scope *tenancy.Scope,
	req RecordRequest,
) {
	s.recorder.Record(ctx, Entry{
		ActorUserID: scope.UserID,
		TenantID:    scope.EffectiveTenant(),
		Action:      req.Action,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Details:     req.Details,
	})
}

// List returns audit entries visible to the caller. Admin role is required,
// and non-root callers are pinned to their own tenant no matter what filter
// they ask for.
func (s *Service) List(
	ctx context.Context,
	scope *tenancy.Scope,
	params ListParams,
) ([]Log, int, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleAdmin); err != nil {
		return nil, 0, err
	}

	params.Normalize()
	params.TenantID = s.gate.TenantFilter(ctx, scope, params.TenantID)

	return s.repo.List(ctx, params)
}

func (s *Service) Stats() Stats {
	return s.recorder.Stats()
}
