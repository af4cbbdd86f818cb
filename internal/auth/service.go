// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/northstarhq/northstar/internal/audit"
	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/rbac"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
	ErrAccountDisabled    = errors.New("account disabled")
)

const resetTokenTTL = time.Hour

// UserInfo is the account view auth needs: credentials plus the stored
// role and tenant state echoed back in auth responses.
type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	TenantID     *string
	Roles        []rbac.Role
	TokenVersion int
	IsActive     bool
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// SessionOverrides clears per-session tenant overrides when sessions end.
type SessionOverrides interface {
	Clear(ctx context.Context, sessionID string) error
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	userProvider UserProvider
	overrides    SessionOverrides
	recorder     *audit.Recorder
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	overrides SessionOverrides,
	recorder *audit.Recorder,
) *Service {
	return &Service{
		repo:         repo,
		jwt:          jwt,
		userProvider: userProvider,
		overrides:    overrides,
		recorder:     recorder,
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	resp, err := s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
	if err != nil {
		return nil, err
	}

	s.record(ctx, user, audit.ActionLogin, resp.sessionID)

	return resp, nil
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, req.Email, passwordHash, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	tokenHash := core.HashToken(refreshToken)

	storedToken, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		//nolint:errcheck // security revocation continues regardless
		_ = s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID)
		return nil, ErrTokenReuse
	}

	if !storedToken.IsValid() {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.createAuthResponse(
		ctx,
		user,
		userAgent,
		ipAddress,
		storedToken.FamilyID,
		&storedToken.ID,
	)
}

// Logout revokes the presented refresh token and discards any tenant
// override tied to its session.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken, userID string,
) error {
	tokenHash := core.HashToken(refreshToken)

	storedToken, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if storedToken.UserID != userID {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, storedToken.ID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	s.clearOverride(ctx, storedToken.FamilyID)

	if user, getErr := s.userProvider.GetByID(ctx, userID); getErr == nil {
		s.record(ctx, user, audit.ActionLogout, storedToken.FamilyID)
	}

	return nil
}

// LogoutAll revokes every session for the user and bumps the token version
// so outstanding access tokens stop working on their next request.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	sessions, err := s.repo.GetActiveSessionsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get sessions: %w", err)
	}

	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	for _, session := range sessions {
		s.clearOverride(ctx, session.FamilyID)
	}

	return nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.GetActiveSessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	s.clearOverride(ctx, token.FamilyID)

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(
		currentPassword,
		user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.LogoutAll(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

// ForgotPassword issues a single-use reset token. The raw token is returned
// for out-of-band delivery; an unknown email yields an empty token and no
// error, so responses never reveal whether the account exists.
func (s *Service) ForgotPassword(
	ctx context.Context,
	email string,
) (string, error) {
	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	token, err := core.GenerateSecureToken(32)
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	resetToken := &PasswordResetToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: core.HashToken(token),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}

	if err := s.repo.CreateResetToken(ctx, resetToken); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	return token, nil
}

// ResetPassword consumes a reset token, sets the new password and kills
// every existing session for the account.
func (s *Service) ResetPassword(
	ctx context.Context,
	token, newPassword string,
) error {
	stored, err := s.repo.FindResetTokenByHash(ctx, core.HashToken(token))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("reset password: %w", core.ErrTokenInvalid)
		}
		return fmt.Errorf("find reset token: %w", err)
	}

	if !stored.IsUsable() {
		if stored.UsedAt != nil {
			return fmt.Errorf("reset password: %w", core.ErrTokenRevoked)
		}
		return fmt.Errorf("reset password: %w", core.ErrTokenExpired)
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, stored.UserID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.repo.MarkResetTokenUsed(ctx, stored.ID); err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}

	if err := s.LogoutAll(ctx, stored.UserID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	if user, getErr := s.userProvider.GetByID(ctx, stored.UserID); getErr == nil {
		s.record(ctx, user, audit.ActionPasswordReset, "")
	}

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Roles:     user.Roles,
		TenantID:  user.TenantID,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID string,
	oldTokenID *string,
) (*AuthResponse, error) {
	refreshData, err := s.jwt.CreateRefreshToken(user.ID, familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	// The token family is the session: the sid claim stays stable across
	// rotations and keys the per-session tenant override.
	accessToken, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		SessionID:    refreshData.FamilyID,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	newTokenID := uuid.New().String()

	refreshTokenEntity := &RefreshToken{
		ID:        newTokenID,
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.repo.Create(ctx, refreshTokenEntity); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if oldTokenID != nil {
		//nolint:errcheck // best-effort token chain tracking
		_ = s.repo.MarkAsUsed(ctx, *oldTokenID, newTokenID)
	}

	return &AuthResponse{
		User: UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Roles:     user.Roles,
			TenantID:  user.TenantID,
			CreatedAt: user.CreatedAt,
		},
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.jwt.config.AccessTokenExpire / time.Second),
			ExpiresAt:    time.Now().Add(s.jwt.config.AccessTokenExpire),
		},
		sessionID: refreshData.FamilyID,
	}, nil
}

func (s *Service) clearOverride(ctx context.Context, sessionID string) {
	if s.overrides == nil || sessionID == "" {
		return
	}
	//nolint:errcheck // best-effort cleanup, TTL expires it anyway
	_ = s.overrides.Clear(ctx, sessionID)
}

func (s *Service) record(
	ctx context.Context,
	user *UserInfo,
	action, sessionID string,
) {
	if s.recorder == nil {
		return
	}

	var entityID *string
	if sessionID != "" {
		entityID = &sessionID
	}

	s.recorder.Record(ctx, audit.Entry{
		ActorUserID: user.ID,
		TenantID:    user.TenantID,
		Action:      action,
		EntityType:  audit.EntitySession,
		EntityID:    entityID,
	})
}
