// AngelaMos | 2026
// service_test.go

package auth_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northstarhq/northstar/internal/auth"
	"github.com/northstarhq/northstar/internal/config"
	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/rbac"
)

type stubUsers struct {
	byEmail         map[string]*auth.UserInfo
	byID            map[string]*auth.UserInfo
	passwordUpdates map[string]string
	versionBumps    []string
}

func newStubUsers() *stubUsers {
	return &stubUsers{
		byEmail:         make(map[string]*auth.UserInfo),
		byID:            make(map[string]*auth.UserInfo),
		passwordUpdates: make(map[string]string),
	}
}

func (s *stubUsers) add(u *auth.UserInfo) {
	s.byEmail[u.Email] = u
	s.byID[u.ID] = u
}

func (s *stubUsers) GetByEmail(
	_ context.Context,
	email string,
) (*auth.UserInfo, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

func (s *stubUsers) GetByID(
	_ context.Context,
	id string,
) (*auth.UserInfo, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

func (s *stubUsers) Create(
	_ context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	if _, ok := s.byEmail[email]; ok {
		return nil, core.ErrDuplicateKey
	}
	u := &auth.UserInfo{
		ID:           "user-" + name,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Roles:        []rbac.Role{rbac.RoleMember},
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	s.add(u)
	return u, nil
}

func (s *stubUsers) IncrementTokenVersion(
	_ context.Context,
	userID string,
) error {
	s.versionBumps = append(s.versionBumps, userID)
	if u, ok := s.byID[userID]; ok {
		u.TokenVersion++
	}
	return nil
}

func (s *stubUsers) UpdatePassword(
	_ context.Context,
	userID, passwordHash string,
) error {
	s.passwordUpdates[userID] = passwordHash
	if u, ok := s.byID[userID]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

type stubTokens struct {
	byHash map[string]*auth.RefreshToken
	byID   map[string]*auth.RefreshToken

	resetByHash map[string]*auth.PasswordResetToken
	resetByID   map[string]*auth.PasswordResetToken

	revokedFamilies []string
	revokedUsers    []string
}

func newStubTokens() *stubTokens {
	return &stubTokens{
		byHash:      make(map[string]*auth.RefreshToken),
		byID:        make(map[string]*auth.RefreshToken),
		resetByHash: make(map[string]*auth.PasswordResetToken),
		resetByID:   make(map[string]*auth.PasswordResetToken),
	}
}

func (s *stubTokens) Create(_ context.Context, t *auth.RefreshToken) error {
	s.byHash[t.TokenHash] = t
	s.byID[t.ID] = t
	return nil
}

func (s *stubTokens) FindByHash(
	_ context.Context,
	tokenHash string,
) (*auth.RefreshToken, error) {
	if t, ok := s.byHash[tokenHash]; ok {
		return t, nil
	}
	return nil, core.ErrNotFound
}

func (s *stubTokens) FindByID(
	_ context.Context,
	id string,
) (*auth.RefreshToken, error) {
	if t, ok := s.byID[id]; ok {
		return t, nil
	}
	return nil, core.ErrNotFound
}

func (s *stubTokens) MarkAsUsed(
	_ context.Context,
	id, replacedByID string,
) error {
	t, ok := s.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	t.MarkAsUsed(replacedByID)
	return nil
}

func (s *stubTokens) RevokeByID(_ context.Context, id string) error {
	t, ok := s.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	t.Revoke()
	return nil
}

func (s *stubTokens) RevokeByFamilyID(
	_ context.Context,
	familyID string,
) error {
	s.revokedFamilies = append(s.revokedFamilies, familyID)
	for _, t := range s.byID {
		if t.FamilyID == familyID && !t.IsRevoked() {
			t.Revoke()
		}
	}
	return nil
}

func (s *stubTokens) RevokeAllForUser(_ context.Context, userID string) error {
	s.revokedUsers = append(s.revokedUsers, userID)
	for _, t := range s.byID {
		if t.UserID == userID && !t.IsRevoked() {
			t.Revoke()
		}
	}
	return nil
}

func (s *stubTokens) GetActiveSessionsForUser(
	_ context.Context,
	userID string,
) ([]auth.RefreshToken, error) {
	var sessions []auth.RefreshToken
	for _, t := range s.byID {
		if t.UserID == userID && t.IsValid() {
			sessions = append(sessions, *t)
		}
	}
	return sessions, nil
}

func (s *stubTokens) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}

func (s *stubTokens) CreateResetToken(
	_ context.Context,
	t *auth.PasswordResetToken,
) error {
	s.resetByHash[t.TokenHash] = t
	s.resetByID[t.ID] = t
	return nil
}

func (s *stubTokens) FindResetTokenByHash(
	_ context.Context,
	tokenHash string,
) (*auth.PasswordResetToken, error) {
	if t, ok := s.resetByHash[tokenHash]; ok {
		return t, nil
	}
	return nil, core.ErrNotFound
}

func (s *stubTokens) MarkResetTokenUsed(_ context.Context, id string) error {
	t, ok := s.resetByID[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now()
	t.UsedAt = &now
	return nil
}

func (s *stubTokens) DeleteExpiredResetTokens(context.Context) (int64, error) {
	return 0, nil
}

type recordingOverrides struct {
	cleared []string
}

func (r *recordingOverrides) Clear(_ context.Context, sessionID string) error {
	r.cleared = append(r.cleared, sessionID)
	return nil
}

func newTestService(
	t *testing.T,
) (*auth.Service, *stubUsers, *stubTokens, *recordingOverrides) {
	t.Helper()

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")
	require.NoError(t, auth.GenerateKeyPair(privPath, pubPath))

	mgr, err := auth.NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     privPath,
		PublicKeyPath:      pubPath,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 7 * 24 * time.Hour,
		Issuer:             "northstar",
		Audience:           "northstar-api",
	})
	require.NoError(t, err)

	users := newStubUsers()
	tokens := newStubTokens()
	overrides := &recordingOverrides{}

	svc := auth.NewService(tokens, mgr, users, overrides, nil)
	return svc, users, tokens, overrides
}

const testPassword = "correct horse battery"

func seedUser(t *testing.T, users *stubUsers, id, email string) *auth.UserInfo {
	t.Helper()

	hash, err := core.HashPassword(testPassword)
	require.NoError(t, err)

	u := &auth.UserInfo{
		ID:           id,
		Email:        email,
		Name:         "Casey",
		PasswordHash: hash,
		Roles:        []rbac.Role{rbac.RoleMember},
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	users.add(u)
	return u
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, users, tokens, _ := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")

	resp, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "casey@example.com",
		Password: testPassword,
	}, "test-agent", "10.0.0.1")

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)
	assert.Equal(t, "casey@example.com", resp.User.Email)

	// The refresh token is stored hashed, never raw.
	stored, err := tokens.FindByHash(
		context.Background(),
		core.HashToken(resp.Tokens.RefreshToken),
	)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)
	assert.Equal(t, "test-agent", stored.UserAgent)
	assert.NotEqual(t, resp.Tokens.RefreshToken, stored.TokenHash)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "casey@example.com",
		Password: "not the password",
	}, "", "")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

// Unknown emails and wrong passwords are indistinguishable to the caller.
func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "nobody@example.com",
		Password: testPassword,
	}, "", "")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	u := seedUser(t, users, "u1", "casey@example.com")
	u.IsActive = false

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "casey@example.com",
		Password: testPassword,
	}, "", "")

	assert.ErrorIs(t, err, auth.ErrAccountDisabled)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")

	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Email:    "casey@example.com",
		Password: "whatever else 123",
		Name:     "Imposter",
	}, "", "")

	assert.ErrorIs(t, err, auth.ErrEmailExists)
}

func TestRefreshRotatesWithinFamily(t *testing.T) {
	svc, users, tokens, _ := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")
	ctx := context.Background()

	first, err := svc.Login(ctx, auth.LoginRequest{
		Email:    "casey@example.com",
		Password: testPassword,
	}, "", "")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(
		t,
		first.Tokens.RefreshToken,
		second.Tokens.RefreshToken,
	)

	oldStored, err := tokens.FindByHash(
		ctx,
		core.HashToken(first.Tokens.RefreshToken),
	)
	require.NoError(t, err)
	newStored, err := tokens.FindByHash(
		ctx,
		core.HashToken(second.Tokens.RefreshToken),
	)
	require.NoError(t, err)

	assert.True(t, oldStored.IsUsed)
	require.NotNil(t, oldStored.ReplacedByID)
	assert.Equal(t, newStored.ID, *oldStored.ReplacedByID)

	// Rotation keeps the family, and with it the session identity.
	assert.Equal(t, oldStored.FamilyID, newStored.FamilyID)
}

// Presenting an already-rotated token is treated as theft: the whole family
// dies, including the legitimate holder's current token.
func TestRefreshReuseKillsFamily(t *testing.T) {
	svc, users, tokens, _ := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")
	ctx := context.Background()

	first, err := svc.Login(ctx, auth.LoginRequest{
		Email:    "casey@example.com",
		Password: testPassword,
	}, "", "")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, auth.ErrTokenReuse)
	assert.Len(t, tokens.revokedFamilies, 1)

	_, err = svc.Refresh(ctx, second.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestRefreshExpiredToken(t *testing.T) {
	svc, users, tokens, _ := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")
	ctx := context.Background()

	raw := "some-opaque-refresh-token"
	require.NoError(t, tokens.Create(ctx, &auth.RefreshToken{
		ID:        "tok-1",
		UserID:    "u1",
		TokenHash: core.HashToken(raw),
		FamilyID:  "fam-1",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := svc.Refresh(ctx, raw, "", "")
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), "never-issued", "", "")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestRefreshDeactivatedAccount(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	u := seedUser(t, users, "u1", "casey@example.com")
	ctx := context.Background()

	resp, err := svc.Login(ctx, auth.LoginRequest{
		Email:    "casey@example.com",
		Password: testPassword,
	}, "", "")
	require.NoError(t, err)

	u.IsActive = false

	_, err = svc.Refresh(ctx, resp.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, auth.ErrAccountDisabled)
}

func TestLogoutRevokesTokenAndOverride(t *testing.T) {
	svc, users, tokens, overrides := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")
	ctx := context.Background()

	resp, err := svc.Login(ctx, auth.LoginRequest{
		Email:    "casey@example.com",
		Password: testPassword,
	}, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, resp.Tokens.RefreshToken, "u1"))

	stored, err := tokens.FindByHash(
		ctx,
		core.HashToken(resp.Tokens.RefreshToken),
	)
	require.NoError(t, err)
	assert.True(t, stored.IsRevoked())

	// The session's tenant override slot dies with the session.
	require.Len(t, overrides.cleared, 1)
	assert.Equal(t, stored.FamilyID, overrides.cleared[0])
}

func TestLogoutSomeoneElsesToken(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")
	ctx := context.Background()

	resp, err := svc.Login(ctx, auth.LoginRequest{
		Email:    "casey@example.com",
		Password: testPassword,
	}, "", "")
	require.NoError(t, err)

	err = svc.Logout(ctx, resp.Tokens.RefreshToken, "u2")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestLogoutUnknownTokenIsIdempotent(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	assert.NoError(t, svc.Logout(context.Background(), "never-issued", "u1"))
}

func TestLogoutAllBumpsTokenVersion(t *testing.T) {
	svc, users, tokens, overrides := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Login(ctx, auth.LoginRequest{
			Email:    "casey@example.com",
			Password: testPassword,
		}, "", "")
		require.NoError(t, err)
	}

	require.NoError(t, svc.LogoutAll(ctx, "u1"))

	assert.Equal(t, []string{"u1"}, tokens.revokedUsers)
	assert.Equal(t, []string{"u1"}, users.versionBumps)
	assert.Len(t, overrides.cleared, 2)

	sessions, err := svc.GetActiveSessions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")

	err := svc.ChangePassword(
		context.Background(),
		"u1",
		"wrong current",
		"a whole new one 42",
	)

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Empty(t, users.passwordUpdates)
}

func TestChangePasswordRotatesCredentialAndSessions(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")
	ctx := context.Background()

	_, err := svc.Login(ctx, auth.LoginRequest{
		Email:    "casey@example.com",
		Password: testPassword,
	}, "", "")
	require.NoError(t, err)

	const newPassword = "a whole new one 42"
	require.NoError(t, svc.ChangePassword(ctx, "u1", testPassword, newPassword))

	assert.Contains(t, users.versionBumps, "u1")

	_, err = svc.Login(ctx, auth.LoginRequest{
		Email:    "casey@example.com",
		Password: newPassword,
	}, "", "")
	assert.NoError(t, err)
}

func TestForgotPasswordUnknownEmailStaysSilent(t *testing.T) {
	svc, _, tokens, _ := newTestService(t)

	raw, err := svc.ForgotPassword(context.Background(), "nobody@example.com")

	require.NoError(t, err)
	assert.Empty(t, raw)
	assert.Empty(t, tokens.resetByHash)
}

func TestResetPasswordFlow(t *testing.T) {
	svc, users, tokens, _ := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")
	ctx := context.Background()

	raw, err := svc.ForgotPassword(ctx, "casey@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	const newPassword = "reset to this one 7"
	require.NoError(t, svc.ResetPassword(ctx, raw, newPassword))

	assert.Contains(t, users.passwordUpdates, "u1")
	assert.Equal(t, []string{"u1"}, tokens.revokedUsers)

	_, err = svc.Login(ctx, auth.LoginRequest{
		Email:    "casey@example.com",
		Password: newPassword,
	}, "", "")
	require.NoError(t, err)

	// Reset tokens are single use.
	err = svc.ResetPassword(ctx, raw, "yet another one 9")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	svc, users, tokens, _ := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")
	ctx := context.Background()

	raw := "raw-reset-token"
	require.NoError(t, tokens.CreateResetToken(ctx, &auth.PasswordResetToken{
		ID:        "reset-1",
		UserID:    "u1",
		TokenHash: core.HashToken(raw),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	err := svc.ResetPassword(ctx, raw, "a whole new one 42")
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestRevokeSessionOfAnotherUser(t *testing.T) {
	svc, users, tokens, _ := newTestService(t)
	seedUser(t, users, "u1", "casey@example.com")
	ctx := context.Background()

	require.NoError(t, tokens.Create(ctx, &auth.RefreshToken{
		ID:        "tok-1",
		UserID:    "u1",
		TokenHash: "irrelevant",
		FamilyID:  "fam-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	err := svc.RevokeSession(ctx, "u2", "tok-1")
	assert.ErrorIs(t, err, core.ErrForbidden)
}
