// AngelaMos | 2026
// service.go

package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/northstarhq/northstar/internal/audit"
	"github.com/northstarhq/northstar/internal/auth"
	"github.com/northstarhq/northstar/internal/authz"
	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/middleware"
	"github.com/northstarhq/northstar/internal/rbac"
	"github.com/northstarhq/northstar/internal/tenancy"
)

type Service struct {
	repo     Repository
	gate     *authz.Gate
	recorder *audit.Recorder
}

func NewService(
	repo Repository,
	gate *authz.Gate,
	recorder *audit.Recorder,
) *Service {
	return &Service{repo: repo, gate: gate, recorder: recorder}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(account), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	account, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(account), nil
}

// Create backs self-serve registration: member role, no tenant until an
// admin assigns one.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	account := &Account{
		ID:           uuid.New().String(),
		ProfileID:    uuid.New().String(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
	}

	if err := s.repo.CreateAccount(
		ctx,
		account,
		[]rbac.Role{rbac.RoleMember},
	); err != nil {
		return nil, err
	}

	return toUserInfo(account), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// Principal is what the scope loader resolves on every request. Roles and
// tenant come from storage here, never from token claims.
func (s *Service) Principal(
	ctx context.Context,
	userID string,
) (*middleware.Principal, error) {
	account, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &middleware.Principal{
		ProfileID:    account.ProfileID,
		Email:        account.Email,
		TenantID:     account.TenantID,
		Roles:        account.Roles,
		IsActive:     account.IsActive,
		TokenVersion: account.TokenVersion,
	}, nil
}

func (s *Service) GetMe(
	ctx context.Context,
	scope *tenancy.Scope,
) (*Account, error) {
	if scope == nil {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, scope.UserID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	scope *tenancy.Scope,
	req UpdateProfileRequest,
) (*Account, error) {
	if scope == nil {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	return s.applyProfileUpdate(ctx, scope.UserID, req)
}

// DeleteMe closes the caller's own account. The row survives soft-deleted;
// the token version bump kills every outstanding session.
func (s *Service) DeleteMe(ctx context.Context, scope *tenancy.Scope) error {
	if scope == nil {
		return fmt.Errorf("delete me: %w", core.ErrUnauthorized)
	}

	if err := s.repo.SoftDelete(ctx, scope.UserID); err != nil {
		return err
	}

	s.record(ctx, scope, audit.ActionDeleted, scope.UserID, nil)
	return nil
}

func (s *Service) List(
	ctx context.Context,
	scope *tenancy.Scope,
	params ListAccountsParams,
) ([]Account, int, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleAdmin); err != nil {
		return nil, 0, err
	}

	params.TenantID = s.gate.TenantFilter(ctx, scope, params.TenantID)

	return s.repo.List(ctx, params)
}

// Get returns NotFound rather than Forbidden for accounts outside the
// caller's tenant, so existence does not leak across boundaries.
func (s *Service) Get(
	ctx context.Context,
	scope *tenancy.Scope,
	userID string,
) (*Account, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleAdmin); err != nil {
		return nil, err
	}

	account, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !s.visible(scope, account) {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}

	return account, nil
}

// CreateAccount is the admin path. Non-root admins always create into their
// own tenant and may grant member or leader only.
func (s *Service) CreateAccount(
	ctx context.Context,
	scope *tenancy.Scope,
	req CreateAccountRequest,
) (*Account, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleAdmin); err != nil {
		return nil, err
	}

	roles, err := parseRoles(req.Roles)
	if err != nil {
		return nil, err
	}

	if needsRoot(roles) {
		if err := s.gate.Require(ctx, scope, rbac.RoleRoot); err != nil {
			return nil, fmt.Errorf("granting %s: %w", rbac.RoleAdmin, err)
		}
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	account := &Account{
		ID:           uuid.New().String(),
		ProfileID:    uuid.New().String(),
		Email:        normalizeEmail(req.Email),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(req.Name),
		TenantID:     s.gate.TenantFilter(ctx, scope, req.TenantID),
	}

	if err := s.repo.CreateAccount(ctx, account, roles); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionCreated, account.ID, map[string]any{
		"email": account.Email,
		"roles": roles,
	})

	return account, nil
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	scope *tenancy.Scope,
	userID string,
	req UpdateProfileRequest,
) (*Account, error) {
	if _, err := s.Get(ctx, scope, userID); err != nil {
		return nil, err
	}

	account, err := s.applyProfileUpdate(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionUpdated, userID, nil)
	return account, nil
}

// AssignTenant moves a profile across tenant boundaries, so it is reserved
// for root. Tenant admins never claim or release accounts themselves.
func (s *Service) AssignTenant(
	ctx context.Context,
	scope *tenancy.Scope,
	userID string,
	tenantID *string,
) (*Account, error) {
	if err := s.gate.Require(ctx, scope, rbac.RoleRoot); err != nil {
		return nil, err
	}

	if err := s.repo.AssignTenant(ctx, userID, tenantID); err != nil {
		return nil, err
	}

	details := map[string]any{"tenant_id": nil}
	if tenantID != nil {
		details["tenant_id"] = *tenantID
	}
	s.record(ctx, scope, audit.ActionUpdated, userID, details)

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) GrantRole(
	ctx context.Context,
	scope *tenancy.Scope,
	userID string,
	role rbac.Role,
) (*Account, error) {
	if err := s.authorizeRoleChange(ctx, scope, userID, role); err != nil {
		return nil, err
	}

	if err := s.repo.GrantRole(ctx, userID, role, &scope.UserID); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionRoleGranted, userID, map[string]any{
		"role": role,
	})

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) RevokeRole(
	ctx context.Context,
	scope *tenancy.Scope,
	userID string,
	role rbac.Role,
) (*Account, error) {
	if err := s.authorizeRoleChange(ctx, scope, userID, role); err != nil {
		return nil, err
	}

	if err := s.repo.RevokeRole(ctx, userID, role); err != nil {
		return nil, err
	}

	s.record(ctx, scope, audit.ActionRoleRevoked, userID, map[string]any{
		"role": role,
	})

	return s.repo.GetByID(ctx, userID)
}

// Deactivate suspends an account and bumps its token version so sessions
// issued before the suspension stay dead even after a later reactivation.
func (s *Service) Deactivate(
	ctx context.Context,
	scope *tenancy.Scope,
	userID string,
) error {
	if err := s.authorizeLifecycleChange(ctx, scope, userID); err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, userID, false); err != nil {
		return err
	}

	if err := s.repo.IncrementTokenVersion(ctx, userID); err != nil {
		return err
	}

	s.record(ctx, scope, audit.ActionDeactivated, userID, nil)
	return nil
}

func (s *Service) Reactivate(
	ctx context.Context,
	scope *tenancy.Scope,
	userID string,
) error {
	if err := s.authorizeLifecycleChange(ctx, scope, userID); err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, userID, true); err != nil {
		return err
	}

	s.record(ctx, scope, audit.ActionReactivated, userID, nil)
	return nil
}

func (s *Service) Delete(
	ctx context.Context,
	scope *tenancy.Scope,
	userID string,
) error {
	if err := s.authorizeLifecycleChange(ctx, scope, userID); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return err
	}

	s.record(ctx, scope, audit.ActionDeleted, userID, nil)
	return nil
}

func (s *Service) EmailExists(
	ctx context.Context,
	email string,
) (bool, error) {
	return s.repo.ExistsByEmail(ctx, normalizeEmail(email))
}

// authorizeRoleChange holds the grant ceiling: admins manage member and
// leader within their tenant; touching admin or root requires root.
func (s *Service) authorizeRoleChange(
	ctx context.Context,
	scope *tenancy.Scope,
	userID string,
	role rbac.Role,
) error {
	if !role.Valid() {
		return fmt.Errorf("role %q: %w", role, core.ErrInvalidInput)
	}

	if _, err := s.Get(ctx, scope, userID); err != nil {
		return err
	}

	if role == rbac.RoleAdmin || role == rbac.RoleRoot {
		if err := s.gate.Require(ctx, scope, rbac.RoleRoot); err != nil {
			return fmt.Errorf("changing %s role: %w", role, err)
		}
	}

	return nil
}

// authorizeLifecycleChange guards deactivate/reactivate/delete: never
// yourself, and non-root actors must strictly outrank the target.
func (s *Service) authorizeLifecycleChange(
	ctx context.Context,
	scope *tenancy.Scope,
	userID string,
) error {
	if err := s.gate.Require(ctx, scope, rbac.RoleAdmin); err != nil {
		return err
	}

	if scope.UserID == userID {
		return fmt.Errorf(
			"cannot change own account status: %w",
			core.ErrInvalidInput,
		)
	}

	target, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.visible(scope, target) {
		return fmt.Errorf("account: %w", core.ErrNotFound)
	}

	if scope.IsRoot() {
		return nil
	}

	targetRole, err := rbac.Effective(target.Roles)
	if err != nil {
		// Target holds no roles; lifecycle changes are still permitted so
		// an admin can clean up the broken account.
		return nil
	}

	if targetRole.Level() >= scope.EffectiveRole.Level() {
		return fmt.Errorf(
			"cannot manage an account of equal or higher role: %w",
			core.ErrForbidden,
		)
	}

	return nil
}

// visible reports whether the account falls inside the actor's effective
// tenant. Unscoped root sees everything, including unassigned accounts.
func (s *Service) visible(scope *tenancy.Scope, account *Account) bool {
	effective := scope.EffectiveTenant()
	if effective == nil {
		return true
	}

	return account.TenantID != nil && *account.TenantID == *effective
}

func (s *Service) applyProfileUpdate(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*Account, error) {
	account, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = strings.TrimSpace(*req.Name)
	}
	if req.Title != nil {
		account.Title = req.Title
	}
	if req.AvatarURL != nil {
		account.AvatarURL = req.AvatarURL
	}

	if err := s.repo.UpdateProfile(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

func (s *Service) record(
	ctx context.Context,
	scope *tenancy.Scope,
	action, targetUserID string,
	details map[string]any,
) {
	if s.recorder == nil {
		return
	}

	s.recorder.Record(ctx, audit.Entry{
		ActorUserID: scope.UserID,
		TenantID:    scope.EffectiveTenant(),
		Action:      action,
		EntityType:  audit.EntityUser,
		EntityID:    &targetUserID,
		Details:     details,
	})
}

func parseRoles(raw []string) ([]rbac.Role, error) {
	if len(raw) == 0 {
		return []rbac.Role{rbac.RoleMember}, nil
	}

	seen := make(map[rbac.Role]bool, len(raw))
	roles := make([]rbac.Role, 0, len(raw))
	for _, r := range raw {
		role, err := rbac.Parse(r)
		if err != nil {
			return nil, err
		}
		if !seen[role] {
			seen[role] = true
			roles = append(roles, role)
		}
	}

	return roles, nil
}

func needsRoot(roles []rbac.Role) bool {
	for _, r := range roles {
		if r == rbac.RoleAdmin || r == rbac.RoleRoot {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(a *Account) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           a.ID,
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		TenantID:     a.TenantID,
		Roles:        a.Roles,
		TokenVersion: a.TokenVersion,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
	}
}

var (
	_ auth.UserProvider          = (*Service)(nil)
	_ middleware.PrincipalSource = (*Service)(nil)
)
