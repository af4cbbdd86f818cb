// AngelaMos | 2026
// repository.go

package okr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/northstarhq/northstar/internal/core"
)

type Repository interface {
	CreateObjective(ctx context.Context, o *Objective) error
	GetObjective(ctx context.Context, tenantID *string, id string) (*Objective, error)
	UpdateObjective(ctx context.Context, o *Objective) error
	UpdateStatus(ctx context.Context, tenantID *string, id string, to Status) error
	ListObjectives(
		ctx context.Context,
		params ListObjectivesParams,
	) ([]Objective, int, error)

	CreateKeyResult(ctx context.Context, kr *KeyResult) error
	GetKeyResult(ctx context.Context, tenantID *string, id string) (*KeyResult, error)
	UpdateKeyResult(ctx context.Context, kr *KeyResult) error
	DeleteKeyResult(ctx context.Context, tenantID *string, id string) error
	UpdateProgress(
		ctx context.Context,
		tenantID *string,
		id string,
		value float64,
	) (*KeyResult, error)
}

const objectiveColumns = `id, tenant_id, team_id, sprint_id, owner_profile_id,
	       title, description, status, created_at, updated_at`

const keyResultColumns = `id, okr_id, tenant_id, title, metric_unit,
	       start_value, target_value, current_value, created_at, updated_at`

// Reads filter by tenant in SQL; writes additionally run under
// core.InTenantTx so row-level policies see the resolved tenant.
type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateObjective(ctx context.Context, o *Objective) error {
	err := core.InTenantTx(ctx, r.db, &o.TenantID, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO okrs (id, tenant_id, team_id, sprint_id,
			                  owner_profile_id, title, description, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at`

		return tx.QueryRowxContext(ctx, query,
			o.ID, o.TenantID, o.TeamID, o.SprintID,
			o.OwnerProfileID, o.Title, o.Description, o.Status,
		).Scan(&o.CreatedAt, &o.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("create okr: %w", err)
	}

	return nil
}

func (r *repository) GetObjective(
	ctx context.Context,
	tenantID *string,
	id string,
) (*Objective, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM okrs
		WHERE id = $1`, objectiveColumns)
	args := []any{id}

	if tenantID != nil {
		query += " AND tenant_id = $2"
		args = append(args, *tenantID)
	}

	var o Objective
	err := r.db.GetContext(ctx, &o, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get okr: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get okr: %w", err)
	}

	if err := r.loadKeyResults(ctx, []*Objective{&o}); err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *repository) UpdateObjective(ctx context.Context, o *Objective) error {
	err := core.InTenantTx(ctx, r.db, &o.TenantID, func(tx *sqlx.Tx) error {
		query := `
			UPDATE okrs
			SET team_id = $3, sprint_id = $4, owner_profile_id = $5,
			    title = $6, description = $7, updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2
			RETURNING updated_at`

		return tx.QueryRowxContext(ctx, query,
			o.ID, o.TenantID, o.TeamID, o.SprintID,
			o.OwnerProfileID, o.Title, o.Description,
		).Scan(&o.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update okr: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update okr: %w", err)
	}

	return nil
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	tenantID *string,
	id string,
	to Status,
) error {
	query := `
		UPDATE okrs
		SET status = $2, updated_at = NOW()
		WHERE id = $1`
	args := []any{id, to}

	if tenantID != nil {
		query += " AND tenant_id = $3"
		args = append(args, *tenantID)
	}

	err := core.InTenantTx(ctx, r.db, tenantID, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}

		if rows == 0 {
			return core.ErrNotFound
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update okr status: %w", err)
	}

	return nil
}

func (r *repository) ListObjectives(
	ctx context.Context,
	params ListObjectivesParams,
) ([]Objective, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if params.TenantID != nil {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", argIdx))
		args = append(args, *params.TenantID)
		argIdx++
	}

	if params.TeamID != nil {
		conditions = append(conditions, fmt.Sprintf("team_id = $%d", argIdx))
		args = append(args, *params.TeamID)
		argIdx++
	}

	if params.SprintID != nil {
		conditions = append(conditions, fmt.Sprintf("sprint_id = $%d", argIdx))
		args = append(args, *params.SprintID)
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(
		`SELECT COUNT(*) FROM okrs WHERE %s`,
		whereClause,
	)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count okrs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM okrs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		objectiveColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var objectives []Objective
	if err := r.db.SelectContext(ctx, &objectives, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list okrs: %w", err)
	}

	refs := make([]*Objective, len(objectives))
	for i := range objectives {
		refs[i] = &objectives[i]
	}
	if err := r.loadKeyResults(ctx, refs); err != nil {
		return nil, 0, err
	}

	return objectives, total, nil
}

// loadKeyResults attaches key results to the given objectives in one query
// and fills the computed progress fields.
func (r *repository) loadKeyResults(
	ctx context.Context,
	objectives []*Objective,
) error {
	if len(objectives) == 0 {
		return nil
	}

	ids := make([]string, len(objectives))
	byID := make(map[string]*Objective, len(objectives))
	for i, o := range objectives {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	query, args, err := sqlx.In(fmt.Sprintf(`
		SELECT %s
		FROM key_results
		WHERE okr_id IN (?)
		ORDER BY created_at ASC`, keyResultColumns), ids)
	if err != nil {
		return fmt.Errorf("load key results: %w", err)
	}

	var results []KeyResult
	err = r.db.SelectContext(ctx, &results, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("load key results: %w", err)
	}

	for i := range results {
		kr := &results[i]
		kr.Progress = kr.ProgressPercent()
		if o, ok := byID[kr.OKRID]; ok {
			o.KeyResults = append(o.KeyResults, *kr)
		}
	}

	for _, o := range objectives {
		o.Progress = o.ProgressPercent()
	}

	return nil
}

func (r *repository) CreateKeyResult(ctx context.Context, kr *KeyResult) error {
	err := core.InTenantTx(ctx, r.db, &kr.TenantID, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO key_results (id, okr_id, tenant_id, title,
			                         metric_unit, start_value, target_value,
			                         current_value)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at`

		return tx.QueryRowxContext(ctx, query,
			kr.ID, kr.OKRID, kr.TenantID, kr.Title,
			kr.MetricUnit, kr.StartValue, kr.TargetValue, kr.CurrentValue,
		).Scan(&kr.CreatedAt, &kr.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("create key result: %w", err)
	}

	kr.Progress = kr.ProgressPercent()

	return nil
}

func (r *repository) GetKeyResult(
	ctx context.Context,
	tenantID *string,
	id string,
) (*KeyResult, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM key_results
		WHERE id = $1`, keyResultColumns)
	args := []any{id}

	if tenantID != nil {
		query += " AND tenant_id = $2"
		args = append(args, *tenantID)
	}

	var kr KeyResult
	err := r.db.GetContext(ctx, &kr, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get key result: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get key result: %w", err)
	}

	kr.Progress = kr.ProgressPercent()

	return &kr, nil
}

func (r *repository) UpdateKeyResult(ctx context.Context, kr *KeyResult) error {
	err := core.InTenantTx(ctx, r.db, &kr.TenantID, func(tx *sqlx.Tx) error {
		query := `
			UPDATE key_results
			SET title = $3, metric_unit = $4, start_value = $5,
			    target_value = $6, updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2
			RETURNING current_value, updated_at`

		return tx.QueryRowxContext(ctx, query,
			kr.ID, kr.TenantID, kr.Title,
			kr.MetricUnit, kr.StartValue, kr.TargetValue,
		).Scan(&kr.CurrentValue, &kr.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update key result: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update key result: %w", err)
	}

	kr.Progress = kr.ProgressPercent()

	return nil
}

func (r *repository) DeleteKeyResult(
	ctx context.Context,
	tenantID *string,
	id string,
) error {
	query := `DELETE FROM key_results WHERE id = $1`
	args := []any{id}

	if tenantID != nil {
		query += " AND tenant_id = $2"
		args = append(args, *tenantID)
	}

	err := core.InTenantTx(ctx, r.db, tenantID, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}

		if rows == 0 {
			return core.ErrNotFound
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("delete key result: %w", err)
	}

	return nil
}

func (r *repository) UpdateProgress(
	ctx context.Context,
	tenantID *string,
	id string,
	value float64,
) (*KeyResult, error) {
	query := `
		UPDATE key_results
		SET current_value = $2, updated_at = NOW()
		WHERE id = $1`
	args := []any{id, value}

	if tenantID != nil {
		query += " AND tenant_id = $3"
		args = append(args, *tenantID)
	}
	query += fmt.Sprintf(" RETURNING %s", keyResultColumns)

	var kr KeyResult
	err := core.InTenantTx(ctx, r.db, tenantID, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, query, args...).StructScan(&kr)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update key result progress: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update key result progress: %w", err)
	}

	kr.Progress = kr.ProgressPercent()

	return &kr, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
