// AngelaMos | 2026
// service.go

package report

import (
	"context"
	"time"

	"github.com/northstarhq/northstar/internal/authz"
	"github.com/northstarhq/northstar/internal/okr"
	"github.com/northstarhq/northstar/internal/rbac"
	"github.com/northstarhq/northstar/internal/sprint"
	"github.com/northstarhq/northstar/internal/tenancy"
)

type Service struct {
	repo Repository
	gate *authz.Gate
}

func NewService(repo Repository, gate *authz.Gate) *Service {
	return &Service{repo: repo, gate: gate}
}

// Dashboard assembles the tenant's aggregate view. An unscoped root gets
// platform-wide numbers.
func (s *Service) Dashboard(
	ctx context.Context,
	scope *tenancy.Scope,
) (*Dashboard, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleMember); err != nil {
		return nil, err
	}

	tenantID := scope.EffectiveTenant()

	okrCounts, err := s.repo.OKRStatusCounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	sprintCounts, err := s.repo.SprintStatusCounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	avg, err := s.repo.AverageProgress(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	teams, err := s.repo.TeamRollups(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		OKRsByStatus: foldCounts(okrCounts,
			string(okr.StatusDraft),
			string(okr.StatusActive),
			string(okr.StatusDone),
			string(okr.StatusArchived),
		),
		SprintsByStatus: foldCounts(sprintCounts,
			string(sprint.StatusPlanned),
			string(sprint.StatusActive),
			string(sprint.StatusClosed),
		),
		AverageProgress: avg,
		Teams:           teams,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// foldCounts turns GROUP BY rows into a map, zero-filling the known
// statuses so the payload shape is stable when a status has no rows.
func foldCounts(counts []StatusCount, statuses ...string) map[string]int {
	out := make(map[string]int, len(statuses))
	for _, status := range statuses {
		out[status] = 0
	}
	for _, c := range counts {
		out[c.Status] = c.Count
	}
	return out
}
