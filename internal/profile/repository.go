// AngelaMos | 2026
// repository.go

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/rbac"
)

type Repository interface {
	CreateAccount(
		ctx context.Context,
		account *Account,
		roles []rbac.Role,
	) error
	GetByID(ctx context.Context, userID string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdateProfile(ctx context.Context, account *Account) error
	AssignTenant(ctx context.Context, userID string, tenantID *string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, userID string) error
	SetActive(ctx context.Context, userID string, active bool) error
	SoftDelete(ctx context.Context, userID string) error
	List(
		ctx context.Context,
		params ListAccountsParams,
	) ([]Account, int, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetRoles(ctx context.Context, userID string) ([]rbac.Role, error)
	GrantRole(
		ctx context.Context,
		userID string,
		role rbac.Role,
		grantedBy *string,
	) error
	RevokeRole(ctx context.Context, userID string, role rbac.Role) error
}

// repository holds the concrete pool rather than core.DBTX because account
// creation and role revocation span multiple statements transactionally.
type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const accountColumns = `
	u.id, u.email, u.password_hash, u.token_version, u.is_active,
	u.created_at, u.updated_at,
	p.id AS profile_id, p.tenant_id, p.name, p.title, p.avatar_url`

func (r *repository) CreateAccount(
	ctx context.Context,
	account *Account,
	roles []rbac.Role,
) error {
	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		userQuery := `
			INSERT INTO users (id, email, password_hash)
			VALUES ($1, $2, $3)
			RETURNING token_version, is_active, created_at, updated_at`

		err := tx.QueryRowxContext(ctx, userQuery,
			account.ID,
			account.Email,
			account.PasswordHash,
		).Scan(
			&account.TokenVersion,
			&account.IsActive,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return err
		}

		profileQuery := `
			INSERT INTO profiles (id, user_id, tenant_id, name, title, avatar_url)
			VALUES ($1, $2, $3, $4, $5, $6)`

		if _, err := tx.ExecContext(ctx, profileQuery,
			account.ProfileID,
			account.ID,
			account.TenantID,
			account.Name,
			account.Title,
			account.AvatarURL,
		); err != nil {
			return err
		}

		roleQuery := `
			INSERT INTO user_roles (user_id, role)
			VALUES ($1, $2)
			ON CONFLICT (user_id, role) DO NOTHING`

		for _, role := range roles {
			if _, err := tx.ExecContext(ctx, roleQuery, account.ID, role); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create account: %w", err)
	}

	account.Roles = roles
	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	userID string,
) (*Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1 AND u.deleted_at IS NULL`, accountColumns)

	var account Account
	err := r.db.GetContext(ctx, &account, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	roles, err := r.GetRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	account.Roles = roles

	return &account, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.email = $1 AND u.deleted_at IS NULL`, accountColumns)

	var account Account
	err := r.db.GetContext(ctx, &account, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}

	roles, err := r.GetRoles(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.Roles = roles

	return &account, nil
}

func (r *repository) UpdateProfile(
	ctx context.Context,
	account *Account,
) error {
	query := `
		UPDATE profiles
		SET name = $2, title = $3, avatar_url = $4, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &account.UpdatedAt, query,
		account.ID,
		account.Name,
		account.Title,
		account.AvatarURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

func (r *repository) AssignTenant(
	ctx context.Context,
	userID string,
	tenantID *string,
) error {
	query := `
		UPDATE profiles
		SET tenant_id = $2, updated_at = NOW()
		WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, tenantID)
	if err != nil {
		return fmt.Errorf("assign tenant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign tenant: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("assign tenant: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("increment token version: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) SetActive(
	ctx context.Context,
	userID string,
	active bool,
) error {
	query := `
		UPDATE users
		SET is_active = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, userID, active)
	if err != nil {
		return fmt.Errorf("set account active: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set account active: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set account active: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) SoftDelete(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET deleted_at = NOW(), is_active = false,
		    token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete account: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListAccountsParams,
) ([]Account, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "u.deleted_at IS NULL")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(u.email ILIKE $%d OR p.name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM user_roles ur WHERE ur.user_id = u.id AND ur.role = $%d)",
			argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.TenantID != nil {
		conditions = append(conditions, fmt.Sprintf("p.tenant_id = $%d", argIdx))
		args = append(args, *params.TenantID)
		argIdx++
	}

	if params.Inactive {
		conditions = append(conditions, "u.is_active = false")
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE %s`, whereClause)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE %s
		ORDER BY u.created_at DESC
		LIMIT $%d OFFSET $%d`,
		accountColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var accounts []Account
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}

	if err := r.loadRoles(ctx, accounts); err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) GetRoles(
	ctx context.Context,
	userID string,
) ([]rbac.Role, error) {
	query := `
		SELECT role
		FROM user_roles
		WHERE user_id = $1
		ORDER BY granted_at`

	var roles []rbac.Role
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("get roles: %w", err)
	}

	return roles, nil
}

func (r *repository) GrantRole(
	ctx context.Context,
	userID string,
	role rbac.Role,
	grantedBy *string,
) error {
	query := `
		INSERT INTO user_roles (user_id, role, granted_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, role) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID, role, grantedBy); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}

	return nil
}

// RevokeRole refuses to remove the last role: an active account with an
// empty role set breaks the access model's base invariant.
func (r *repository) RevokeRole(
	ctx context.Context,
	userID string,
	role rbac.Role,
) error {
	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var roles []rbac.Role
		lockQuery := `
			SELECT role FROM user_roles
			WHERE user_id = $1
			FOR UPDATE`

		if err := tx.SelectContext(ctx, &roles, lockQuery, userID); err != nil {
			return err
		}

		found := false
		for _, held := range roles {
			if held == role {
				found = true
				break
			}
		}
		if !found {
			return core.ErrNotFound
		}

		if len(roles) == 1 {
			return core.ErrInvalidInput
		}

		deleteQuery := `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`
		_, err := tx.ExecContext(ctx, deleteQuery, userID, role)
		return err
	})
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}

	return nil
}

func (r *repository) loadRoles(
	ctx context.Context,
	accounts []Account,
) error {
	if len(accounts) == 0 {
		return nil
	}

	ids := make([]string, 0, len(accounts))
	for i := range accounts {
		ids = append(ids, accounts[i].ID)
	}

	query, args, err := sqlx.In(
		`SELECT user_id, role FROM user_roles WHERE user_id IN (?)`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}

	var assignments []RoleAssignment
	if err := r.db.SelectContext(
		ctx,
		&assignments,
		r.db.Rebind(query),
		args...,
	); err != nil {
		return fmt.Errorf("load roles: %w", err)
	}

	byUser := make(map[string][]rbac.Role, len(accounts))
	for _, a := range assignments {
		byUser[a.UserID] = append(byUser[a.UserID], a.Role)
	}

	for i := range accounts {
		accounts[i].Roles = byUser[accounts[i].ID]
	}

	return nil
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
