// AngelaMos | 2026
// repository.go

package wiki

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
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, tenantID *string, id string) (*Category, error)
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, tenantID *string, id string) error
	ListCategories(ctx context.Context, tenantID *string) ([]Category, error)

	CreateDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, tenantID *string, id string) (*Document, error)
	UpdateDocument(ctx context.Context, d *Document) error
	DeleteDocument(ctx context.Context, tenantID *string, id string) error
	ListDocuments(
		ctx context.Context,
		params ListDocumentsParams,
	) ([]Document, int, error)
}

// Reads filter by tenant in SQL; writes additionally run under
// core.InTenantTx so row-level policies see the resolved tenant.
type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateCategory(ctx context.Context, c *Category) error {
	err := core.InTenantTx(ctx, r.db, &c.TenantID, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO wiki_categories (id, tenant_id, name, slug, position)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at`

		return tx.QueryRowxContext(ctx, query,
			c.ID, c.TenantID, c.Name, c.Slug, c.Position,
		).Scan(&c.CreatedAt, &c.UpdatedAt)
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create wiki category: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create wiki category: %w", err)
	}

	return nil
}

func (r *repository) GetCategory(
	ctx context.Context,
	tenantID *string,
	id string,
) (*Category, error) {
	query := `
		SELECT id, tenant_id, name, slug, position, created_at, updated_at
		FROM wiki_categories
		WHERE id = $1`
	args := []any{id}

	if tenantID != nil {
		query += " AND tenant_id = $2"
		args = append(args, *tenantID)
	}

	var c Category
	err := r.db.GetContext(ctx, &c, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get wiki category: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get wiki category: %w", err)
	}

	return &c, nil
}

func (r *repository) UpdateCategory(ctx context.Context, c *Category) error {
	err := core.InTenantTx(ctx, r.db, &c.TenantID, func(tx *sqlx.Tx) error {
		query := `
			UPDATE wiki_categories
			SET name = $3, slug = $4, position = $5, updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2
			RETURNING updated_at`

		return tx.QueryRowxContext(ctx, query,
			c.ID, c.TenantID, c.Name, c.Slug, c.Position,
		).Scan(&c.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update wiki category: %w", core.ErrNotFound)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("update wiki category: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update wiki category: %w", err)
	}

	return nil
}

// DeleteCategory removes the category only. The schema sets category_id to
// NULL on member documents instead of cascading.
func (r *repository) DeleteCategory(
	ctx context.Context,
	tenantID *string,
	id string,
) error {
	query := `DELETE FROM wiki_categories WHERE id = $1`
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
		return fmt.Errorf("delete wiki category: %w", err)
	}

	return nil
}

func (r *repository) ListCategories(
	ctx context.Context,
	tenantID *string,
) ([]Category, error) {
	query := `
		SELECT id, tenant_id, name, slug, position, created_at, updated_at
		FROM wiki_categories`
	var args []any

	if tenantID != nil {
		query += " WHERE tenant_id = $1"
		args = append(args, *tenantID)
	}
	query += " ORDER BY position ASC, name ASC"

	var categories []Category
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("list wiki categories: %w", err)
	}

	return categories, nil
}

func (r *repository) CreateDocument(ctx context.Context, d *Document) error {
	err := core.InTenantTx(ctx, r.db, &d.TenantID, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO wiki_documents (id, tenant_id, category_id, title,
			                            slug, content, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at`

		return tx.QueryRowxContext(ctx, query,
			d.ID, d.TenantID, d.CategoryID, d.Title,
			d.Slug, d.Content, d.CreatedBy,
		).Scan(&d.CreatedAt, &d.UpdatedAt)
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create wiki document: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create wiki document: %w", err)
	}

	return nil
}

func (r *repository) GetDocument(
	ctx context.Context,
	tenantID *string,
	id string,
) (*Document, error) {
	query := `
		SELECT id, tenant_id, category_id, title, slug, content, created_by,
		       created_at, updated_at
		FROM wiki_documents
		WHERE id = $1`
	args := []any{id}

	if tenantID != nil {
		query += " AND tenant_id = $2"
		args = append(args, *tenantID)
	}

	var d Document
	err := r.db.GetContext(ctx, &d, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get wiki document: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get wiki document: %w", err)
	}

	return &d, nil
}

func (r *repository) UpdateDocument(ctx context.Context, d *Document) error {
	err := core.InTenantTx(ctx, r.db, &d.TenantID, func(tx *sqlx.Tx) error {
		query := `
			UPDATE wiki_documents
			SET category_id = $3, title = $4, slug = $5, content = $6,
			    updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2
			RETURNING updated_at`

		return tx.QueryRowxContext(ctx, query,
			d.ID, d.TenantID, d.CategoryID, d.Title, d.Slug, d.Content,
		).Scan(&d.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update wiki document: %w", core.ErrNotFound)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("update wiki document: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update wiki document: %w", err)
	}

	return nil
}

func (r *repository) DeleteDocument(
	ctx context.Context,
	tenantID *string,
	id string,
) error {
	query := `DELETE FROM wiki_documents WHERE id = $1`
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
		return fmt.Errorf("delete wiki document: %w", err)
	}

	return nil
}

func (r *repository) ListDocuments(
	ctx context.Context,
	params ListDocumentsParams,
) ([]Document, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if params.TenantID != nil {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", argIdx))
		args = append(args, *params.TenantID)
		argIdx++
	}

	if params.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argIdx))
		args = append(args, *params.CategoryID)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR slug ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(
		`SELECT COUNT(*) FROM wiki_documents WHERE %s`,
		whereClause,
	)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count wiki documents: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, tenant_id, category_id, title, slug, content, created_by,
		       created_at, updated_at
		FROM wiki_documents
		WHERE %s
		ORDER BY title ASC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var documents []Document
	if err := r.db.SelectContext(ctx, &documents, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list wiki documents: %w", err)
	}

	return documents, total, nil
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
