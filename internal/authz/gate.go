// AngelaMos | 2026
// gate.go

package authz

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/rbac"
	"github.com/northstarhq/northstar/internal/tenancy"
)

// Gate composes the role and tenant checks that every tenant-scoped
// operation runs before dispatching to persistence. Its decisions mirror
// the database's row-level policies exactly, so "looks allowed" and
// "actually allowed" never drift apart.
type Gate struct {
	logger *slog.Logger
}

func NewGate(logger *slog.Logger) *Gate {
	return &Gate{logger: logger}
}

// Require denies with core.ErrForbidden when the scope's roles fall below
// minRole. Root passes every check. An empty role set is a data-integrity
// violation and is logged at ERROR, distinct from an ordinary denial.
// Denials are returned as typed errors, never panicked.
func (g *Gate) Require(
	ctx context.Context,
	scope *tenancy.Scope,
	minRole rbac.Role,
) error {
	if scope == nil {
		return core.ErrUnauthorized
	}

	if _, err := rbac.Effective(scope.Roles); err != nil {
		g.logger.ErrorContext(ctx, "role invariant violation: user holds no roles",
			"user_id", scope.UserID,
		)
		return err
	}

	if !rbac.HasMinimum(scope.Roles, minRole) {
		g.logger.WarnContext(ctx, "denied: below minimum role",
			"user_id", scope.UserID,
			"effective_role", scope.EffectiveRole.String(),
			"required_role", minRole.String(),
		)
		core.AddSpanEvent(ctx, "authorization denied",
			attribute.String("required_role", minRole.String()),
			attribute.String("effective_role", scope.EffectiveRole.String()),
		)
		return fmt.Errorf("requires %s role: %w", minRole, core.ErrForbidden)
	}

	return nil
}

// RequireAny denies unless the scope holds at least one of the given roles.
// Root always passes.
func (g *Gate) RequireAny(
	ctx context.Context,
	scope *tenancy.Scope,
	roles ...rbac.Role,
) error {
	if scope == nil {
		return core.ErrUnauthorized
	}

	if _, err := rbac.Effective(scope.Roles); err != nil {
		g.logger.ErrorContext(ctx, "role invariant violation: user holds no roles",
			"user_id", scope.UserID,
		)
		return err
	}

	if !rbac.HasRole(scope.Roles, roles...) {
		g.logger.WarnContext(ctx, "denied: role not held",
			"user_id", scope.UserID,
			"effective_role", scope.EffectiveRole.String(),
		)
		core.AddSpanEvent(ctx, "authorization denied",
			attribute.String("effective_role", scope.EffectiveRole.String()),
		)
		return fmt.Errorf("role not held: %w", core.ErrForbidden)
	}

	return nil
}

// TenantFilter resolves the tenant filter an operation must use. Non-root
// actors are always pinned to their effective tenant, whatever the caller
// requested; root with an override is pinned to the override; root unscoped
// passes the requested filter through (nil means all tenants).
func (g *Gate) TenantFilter(
	ctx context.Context,
	scope *tenancy.Scope,
	requested *string,
) *string {
	effective := scope.EffectiveTenant()

	if effective == nil {
		return requested
	}

	if requested != nil && *requested != *effective {
		g.logger.WarnContext(ctx, "tenant filter forced to effective tenant",
			"user_id", scope.UserID,
			"requested_tenant", *requested,
			"effective_tenant", *effective,
		)
	}

	return effective
}
