// AngelaMos | 2026
// repository.go

package report

import (
	"context"
	"fmt"

	"github.com/northstarhq/northstar/internal/core"
)

type Repository interface {
	OKRStatusCounts(ctx context.Context, tenantID *string) ([]StatusCount, error)
	SprintStatusCounts(ctx context.Context, tenantID *string) ([]StatusCount, error)
	AverageProgress(ctx context.Context, tenantID *string) (float64, error)
	TeamRollups(ctx context.Context, tenantID *string) ([]TeamRollup, error)
}

// progressExpr mirrors KeyResult.ProgressPercent in SQL, except that
// zero-span key results drop out of averages through NULLIF instead of
// collapsing to 0 or 100.
const progressExpr = `LEAST(GREATEST(
		(kr.current_value - kr.start_value)
		/ NULLIF(kr.target_value - kr.start_value, 0) * 100, 0), 100)`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) OKRStatusCounts(
	ctx context.Context,
	tenantID *string,
) ([]StatusCount, error) {
	return r.statusCounts(ctx, "okrs", tenantID)
}

func (r *repository) SprintStatusCounts(
	ctx context.Context,
	tenantID *string,
) ([]StatusCount, error) {
	return r.statusCounts(ctx, "sprints", tenantID)
}

func (r *repository) statusCounts(
	ctx context.Context,
	table string,
	tenantID *string,
) ([]StatusCount, error) {
	query := fmt.Sprintf(
		`SELECT status, COUNT(*) AS count FROM %s`,
		table,
	)
	var args []any

	if tenantID != nil {
		query += " WHERE tenant_id = $1"
		args = append(args, *tenantID)
	}
	query += " GROUP BY status"

	var counts []StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count %s by status: %w", table, err)
	}

	return counts, nil
}

func (r *repository) AverageProgress(
	ctx context.Context,
	tenantID *string,
) (float64, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(AVG(%s), 0)
		FROM key_results kr`, progressExpr)
	var args []any

	if tenantID != nil {
		query += " WHERE kr.tenant_id = $1"
		args = append(args, *tenantID)
	}

	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, args...); err != nil {
		return 0, fmt.Errorf("average progress: %w", err)
	}

	return avg, nil
}

func (r *repository) TeamRollups(
	ctx context.Context,
	tenantID *string,
) ([]TeamRollup, error) {
	query := fmt.Sprintf(`
		SELECT t.id AS team_id,
		       t.name AS team_name,
		       COUNT(DISTINCT o.id) AS okr_count,
		       COUNT(DISTINCT o.id) FILTER (WHERE o.status = 'done') AS done_count,
		       COALESCE(AVG(%s), 0) AS avg_progress
		FROM teams t
		LEFT JOIN okrs o ON o.team_id = t.id AND o.status <> 'archived'
		LEFT JOIN key_results kr ON kr.okr_id = o.id
		WHERE t.archived_at IS NULL`, progressExpr)
	var args []any

	if tenantID != nil {
		query += " AND t.tenant_id = $1"
		args = append(args, *tenantID)
	}
	query += `
		GROUP BY t.id, t.name
		ORDER BY t.name ASC`

	var rollups []TeamRollup
	if err := r.db.SelectContext(ctx, &rollups, query, args...); err != nil {
		return nil, fmt.Errorf("team rollups: %w", err)
	}

	return rollups, nil
}
