// AngelaMos | 2026
// scope.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/rbac"
	"github.com/northstarhq/northstar/internal/tenancy"
)

const ScopeKey contextKey = "scope"

// Principal is the stored view of an account at the moment a request
// arrives: profile identity, home tenant, and current role assignments.
type Principal struct {
	ProfileID    string
	Email        string
	TenantID     *string
	Roles        []rbac.Role
	IsActive     bool
	TokenVersion int
}

type PrincipalSource interface {
	Principal(ctx context.Context, userID string) (*Principal, error)
}

type OverrideSource interface {
	Get(ctx context.Context, sessionID string) *string
}

// ScopeLoader resolves the caller's roles and tenant on every request and
// stores a tenancy.Scope in the context. It must run after Authenticator.
// Nothing is read from the token beyond identity, so a role revocation or
// deactivation takes effect on the very next request.
func ScopeLoader(
	principals PrincipalSource,
	overrides OverrideSource,
	logger *slog.Logger,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := GetUserID(ctx)
			if userID == "" {
				core.Unauthorized(w, "")
				return
			}

			principal, err := principals.Principal(ctx, userID)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					core.Unauthorized(w, "account no longer exists")
					return
				}
				core.InternalServerError(w, err)
				return
			}

			if !principal.IsActive {
				core.Unauthorized(w, "account is deactivated")
				return
			}

			// Bumping the stored version invalidates every access token
			// issued before it, without waiting for expiry.
			if claims := GetClaims(ctx); claims != nil &&
				claims.TokenVersion < principal.TokenVersion {
				core.JSONError(w, core.TokenRevokedError())
				return
			}

			effective, err := rbac.Effective(principal.Roles)
			if err != nil {
				logger.ErrorContext(
					ctx,
					"role invariant violation: account holds no roles",
					"user_id", userID,
				)
				core.JSONError(w, core.NoRoleAssignedError())
				return
			}

			sessionID := GetSessionID(ctx)

			// Overrides are stored per session and only honored for root;
			// anyone else stays pinned to their home tenant.
			var override *string
			if rbac.IsRoot(principal.Roles) && overrides != nil && sessionID != "" {
				override = overrides.Get(ctx, sessionID)
			}

			scope := &tenancy.Scope{
				UserID:          userID,
				ProfileID:       principal.ProfileID,
				SessionID:       sessionID,
				Email:           principal.Email,
				Roles:           principal.Roles,
				EffectiveRole:   effective,
				ProfileTenantID: principal.TenantID,
				TenantOverride:  override,
			}

			ctx = context.WithValue(ctx, ScopeKey, scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireMinimumRole(minRole rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := GetScope(r.Context())

			if scope == nil {
				core.Unauthorized(w, "")
				return
			}

			if !rbac.HasMinimum(scope.Roles, minRole) {
				core.Forbidden(w, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireMinimumRole(rbac.RoleAdmin)(next)
}

func RequireRoot(next http.Handler) http.Handler {
	return RequireMinimumRole(rbac.RoleRoot)(next)
}

func GetScope(ctx context.Context) *tenancy.Scope {
	if scope, ok := ctx.Value(ScopeKey).(*tenancy.Scope); ok {
		return scope
	}
	return nil
}
