// AngelaMos | 2026
// repository.go

package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/northstarhq/northstar/internal/core"
)

type Repository interface {
	Create(ctx context.Context, t *Team) error
	GetByID(ctx context.Context, tenantID *string, id string) (*Team, error)
	Update(ctx context.Context, t *Team) error
	Archive(ctx context.Context, tenantID *string, id string) error
	Restore(ctx context.Context, tenantID *string, id string) error
	List(ctx context.Context, params ListTeamsParams) ([]Team, int, error)
}

// Reads filter by tenant in SQL; writes additionally run under
// core.InTenantTx so row-level policies see the resolved tenant.
type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Team) error {
	err := core.InTenantTx(ctx, r.db, &t.TenantID, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO teams (id, tenant_id, name, slug, description)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at`

		return tx.QueryRowxContext(ctx, query,
			t.ID, t.TenantID, t.Name, t.Slug, t.Description,
		).Scan(&t.CreatedAt, &t.UpdatedAt)
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create team: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create team: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	tenantID *string,
	id string,
) (*Team, error) {
	query := `
		SELECT id, tenant_id, name, slug, description, archived_at,
		       created_at, updated_at
		FROM teams
		WHERE id = $1`
	args := []any{id}

	if tenantID != nil {
		query += " AND tenant_id = $2"
		args = append(args, *tenantID)
	}

	var t Team
	err := r.db.GetContext(ctx, &t, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get team: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}

	return &t, nil
}

func (r *repository) Update(ctx context.Context, t *Team) error {
	err := core.InTenantTx(ctx, r.db, &t.TenantID, func(tx *sqlx.Tx) error {
		query := `
			UPDATE teams
			SET name = $3, slug = $4, description = $5, updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2
			RETURNING updated_at`

		return tx.QueryRowxContext(ctx, query,
			t.ID, t.TenantID, t.Name, t.Slug, t.Description,
		).Scan(&t.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update team: %w", core.ErrNotFound)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("update team: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update team: %w", err)
	}

	return nil
}

func (r *repository) Archive(
	ctx context.Context,
	tenantID *string,
	id string,
) error {
	return r.setArchived(ctx, tenantID, id, true)
}

func (r *repository) Restore(
	ctx context.Context,
	tenantID *string,
	id string,
) error {
	return r.setArchived(ctx, tenantID, id, false)
}

func (r *repository) setArchived(
	ctx context.Context,
	tenantID *string,
	id string,
	archived bool,
) error {
	op := "archive team"
	if !archived {
		op = "restore team"
	}

	query := `
		UPDATE teams
		SET archived_at = CASE WHEN $2 THEN NOW() ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $1`
	args := []any{id, archived}

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
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListTeamsParams,
) ([]Team, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if params.TenantID != nil {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", argIdx))
		args = append(args, *params.TenantID)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR slug ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if !params.IncludeArchived {
		conditions = append(conditions, "archived_at IS NULL")
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(
		`SELECT COUNT(*) FROM teams WHERE %s`,
		whereClause,
	)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teams: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, tenant_id, name, slug, description, archived_at,
		       created_at, updated_at
		FROM teams
		WHERE %s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var teams []Team
	if err := r.db.SelectContext(ctx, &teams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teams: %w", err)
	}

	return teams, total, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
