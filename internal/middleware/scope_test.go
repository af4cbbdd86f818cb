// AngelaMos | 2026
// scope_test.go

package middleware_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/middleware"
	"github.com/northstarhq/northstar/internal/rbac"
	"github.com/northstarhq/northstar/internal/tenancy"
)

type stubVerifier struct {
	claims *middleware.AccessTokenClaims
	err    error
}

func (v stubVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*middleware.AccessTokenClaims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

type stubPrincipals map[string]*middleware.Principal

func (s stubPrincipals) Principal(
	_ context.Context,
	userID string,
) (*middleware.Principal, error) {
	if p, ok := s[userID]; ok {
		return p, nil
	}
	return nil, core.ErrNotFound
}

type stubOverrides map[string]string

func (s stubOverrides) Get(_ context.Context, sessionID string) *string {
	if v, ok := s[sessionID]; ok {
		return &v
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// runScoped pushes one authenticated request through Authenticator and
// ScopeLoader and captures whatever scope reaches the final handler.
func runScoped(
	t *testing.T,
	verifier middleware.TokenVerifier,
	principals middleware.PrincipalSource,
	overrides middleware.OverrideSource,
) (*httptest.ResponseRecorder, *tenancy.Scope) {
	t.Helper()

	var captured *tenancy.Scope
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetScope(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	chain := middleware.Authenticator(verifier)(
		middleware.ScopeLoader(principals, overrides, discardLogger())(final),
	)

	req := httptest.NewRequest(http.MethodGet, "/teams", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	return rec, captured
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	chain := middleware.Authenticator(stubVerifier{})(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run without a token")
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/teams", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization token")
}

func TestAuthenticatorRejectsExpiredToken(t *testing.T) {
	verifier := stubVerifier{err: core.ErrTokenExpired}
	chain := middleware.Authenticator(verifier)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run with an expired token")
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/teams", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_EXPIRED")
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", ""},
		{"bearer", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"wrong scheme", "Basic abc123", ""},
		{"scheme only", "Bearer", ""},
		{"padded token", "Bearer   abc123  ", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, middleware.ExtractToken(req))
		})
	}
}

func TestScopeLoaderBuildsScope(t *testing.T) {
	tenantA := "11111111-1111-1111-1111-111111111111"

	verifier := stubVerifier{claims: &middleware.AccessTokenClaims{
		UserID:    "user-1",
		SessionID: "sess-1",
	}}
	principals := stubPrincipals{
		"user-1": {
			ProfileID: "prof-1",
			Email:     "casey@example.com",
			TenantID:  &tenantA,
			Roles:     []rbac.Role{rbac.RoleMember},
			IsActive:  true,
		},
	}

	rec, scope := runScoped(t, verifier, principals, stubOverrides{})

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, scope)
	assert.Equal(t, "user-1", scope.UserID)
	assert.Equal(t, "prof-1", scope.ProfileID)
	assert.Equal(t, "sess-1", scope.SessionID)
	assert.Equal(t, rbac.RoleMember, scope.EffectiveRole)
	require.NotNil(t, scope.ProfileTenantID)
	assert.Equal(t, tenantA, *scope.ProfileTenantID)
	assert.Nil(t, scope.TenantOverride)
}

func TestScopeLoaderRejectsDeactivatedAccount(t *testing.T) {
	verifier := stubVerifier{claims: &middleware.AccessTokenClaims{
		UserID:    "user-1",
		SessionID: "sess-1",
	}}
	principals := stubPrincipals{
		"user-1": {
			ProfileID: "prof-1",
			Roles:     []rbac.Role{rbac.RoleAdmin},
			IsActive:  false,
		},
	}

	rec, scope := runScoped(t, verifier, principals, stubOverrides{})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "account is deactivated")
	assert.Nil(t, scope)
}

func TestScopeLoaderRejectsVanishedAccount(t *testing.T) {
	verifier := stubVerifier{claims: &middleware.AccessTokenClaims{
		UserID:    "ghost",
		SessionID: "sess-1",
	}}

	rec, scope := runScoped(t, verifier, stubPrincipals{}, stubOverrides{})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "account no longer exists")
	assert.Nil(t, scope)
}

// A bumped token version cuts off tokens minted before the bump even though
// they are otherwise valid and unexpired.
func TestScopeLoaderRejectsStaleTokenVersion(t *testing.T) {
	verifier := stubVerifier{claims: &middleware.AccessTokenClaims{
		UserID:       "user-1",
		SessionID:    "sess-1",
		TokenVersion: 1,
	}}
	principals := stubPrincipals{
		"user-1": {
			ProfileID:    "prof-1",
			Roles:        []rbac.Role{rbac.RoleMember},
			IsActive:     true,
			TokenVersion: 2,
		},
	}

	rec, scope := runScoped(t, verifier, principals, stubOverrides{})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_REVOKED")
	assert.Nil(t, scope)
}

func TestScopeLoaderRejectsRolelessAccount(t *testing.T) {
	verifier := stubVerifier{claims: &middleware.AccessTokenClaims{
		UserID:    "user-1",
		SessionID: "sess-1",
	}}
	principals := stubPrincipals{
		"user-1": {
			ProfileID: "prof-1",
			Roles:     nil,
			IsActive:  true,
		},
	}

	rec, scope := runScoped(t, verifier, principals, stubOverrides{})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_ROLE_ASSIGNED")
	assert.Nil(t, scope)
}

func TestScopeLoaderHonorsRootOverride(t *testing.T) {
	tenantB := "22222222-2222-2222-2222-222222222222"

	verifier := stubVerifier{claims: &middleware.AccessTokenClaims{
		UserID:    "root-1",
		SessionID: "sess-root",
	}}
	principals := stubPrincipals{
		"root-1": {
			ProfileID: "prof-root",
			TenantID:  nil,
			Roles:     []rbac.Role{rbac.RoleRoot},
			IsActive:  true,
		},
	}
	overrides := stubOverrides{"sess-root": tenantB}

	rec, scope := runScoped(t, verifier, principals, overrides)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, scope)
	require.NotNil(t, scope.TenantOverride)
	assert.Equal(t, tenantB, *scope.TenantOverride)

	effective := scope.EffectiveTenant()
	require.NotNil(t, effective)
	assert.Equal(t, tenantB, *effective)
}

// An override slot left in Redis must not leak to non-root callers even when
// their session key matches.
func TestScopeLoaderIgnoresOverrideForNonRoot(t *testing.T) {
	tenantA := "11111111-1111-1111-1111-111111111111"
	tenantB := "22222222-2222-2222-2222-222222222222"

	verifier := stubVerifier{claims: &middleware.AccessTokenClaims{
		UserID:    "admin-1",
		SessionID: "sess-admin",
	}}
	principals := stubPrincipals{
		"admin-1": {
			ProfileID: "prof-admin",
			TenantID:  &tenantA,
			Roles:     []rbac.Role{rbac.RoleAdmin},
			IsActive:  true,
		},
	}
	overrides := stubOverrides{"sess-admin": tenantB}

	rec, scope := runScoped(t, verifier, principals, overrides)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, scope)
	assert.Nil(t, scope.TenantOverride)

	effective := scope.EffectiveTenant()
	require.NotNil(t, effective)
	assert.Equal(t, tenantA, *effective)
}

func scopedRequest(scope *tenancy.Scope) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	if scope == nil {
		return req
	}
	ctx := context.WithValue(req.Context(), middleware.ScopeKey, scope)
	return req.WithContext(ctx)
}

func TestRequireMinimumRole(t *testing.T) {
	tests := []struct {
		name     string
		scope    *tenancy.Scope
		gate     func(http.Handler) http.Handler
		wantCode int
	}{
		{
			name:     "no scope",
			scope:    nil,
			gate:     middleware.RequireMinimumRole(rbac.RoleMember),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "member below admin",
			scope:    &tenancy.Scope{Roles: []rbac.Role{rbac.RoleMember}},
			gate:     middleware.RequireAdmin,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "admin passes admin gate",
			scope:    &tenancy.Scope{Roles: []rbac.Role{rbac.RoleAdmin}},
			gate:     middleware.RequireAdmin,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "admin below root",
			scope:    &tenancy.Scope{Roles: []rbac.Role{rbac.RoleAdmin}},
			gate:     middleware.RequireRoot,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "root passes root gate",
			scope:    &tenancy.Scope{Roles: []rbac.Role{rbac.RoleRoot}},
			gate:     middleware.RequireRoot,
			wantCode: http.StatusNoContent,
		},
		{
			name: "multi-role account uses its highest role",
			scope: &tenancy.Scope{
				Roles: []rbac.Role{rbac.RoleMember, rbac.RoleLeader},
			},
			gate:     middleware.RequireMinimumRole(rbac.RoleLeader),
			wantCode: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := tt.gate(http.HandlerFunc(
				func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusNoContent)
				},
			))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, scopedRequest(tt.scope))

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
