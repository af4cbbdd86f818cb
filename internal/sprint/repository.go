// AngelaMos | 2026
// repository.go

package sprint

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
	Create(ctx context.Context, s *Sprint) error
	GetByID(ctx context.Context, tenantID *string, id string) (*Sprint, error)
	Update(ctx context.Context, s *Sprint) error
	UpdateStatus(
		ctx context.Context,
		tenantID *string,
		id string,
		from, to Status,
	) error
	List(ctx context.Context, params ListSprintsParams) ([]Sprint, int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Sprint) error {
	err := core.InTenantTx(ctx, r.db, &s.TenantID, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO sprints (id, tenant_id, team_id, name, starts_on, ends_on, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at`

		return tx.QueryRowxContext(ctx, query,
			s.ID, s.TenantID, s.TeamID, s.Name, s.StartsOn, s.EndsOn, s.Status,
		).Scan(&s.CreatedAt, &s.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("create sprint: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	tenantID *string,
	id string,
) (*Sprint, error) {
	query := `
		SELECT id, tenant_id, team_id, name, starts_on, ends_on, status,
		       created_at, updated_at
		FROM sprints
		WHERE id = $1`
	args := []any{id}

	if tenantID != nil {
		query += " AND tenant_id = $2"
		args = append(args, *tenantID)
	}

	var s Sprint
	err := r.db.GetContext(ctx, &s, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get sprint: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get sprint: %w", err)
	}

	return &s, nil
}

func (r *repository) Update(ctx context.Context, s *Sprint) error {
	err := core.InTenantTx(ctx, r.db, &s.TenantID, func(tx *sqlx.Tx) error {
		query := `
			UPDATE sprints
			SET team_id = $3, name = $4, starts_on = $5, ends_on = $6,
			    updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2
			RETURNING updated_at`

		return tx.QueryRowxContext(ctx, query,
			s.ID, s.TenantID, s.TeamID, s.Name, s.StartsOn, s.EndsOn,
		).Scan(&s.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update sprint: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update sprint: %w", err)
	}

	return nil
}

// UpdateStatus is conditional on the expected current status, so two racing
// transitions cannot both win.
func (r *repository) UpdateStatus(
	ctx context.Context,
	tenantID *string,
	id string,
	from, to Status,
) error {
	query := `
		UPDATE sprints
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`
	args := []any{id, from, to}

	if tenantID != nil {
		query += " AND tenant_id = $4"
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
			return core.ErrInvalidInput
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update sprint status: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListSprintsParams,
) ([]Sprint, int, error) {
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

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(
		`SELECT COUNT(*) FROM sprints WHERE %s`,
		whereClause,
	)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sprints: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, tenant_id, team_id, name, starts_on, ends_on, status,
		       created_at, updated_at
		FROM sprints
		WHERE %s
		ORDER BY starts_on DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var sprints []Sprint
	if err := r.db.SelectContext(ctx, &sprints, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sprints: %w", err)
	}

	return sprints, total, nil
}
