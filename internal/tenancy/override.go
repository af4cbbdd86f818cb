// AngelaMos | 2026
// override.go

package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/northstarhq/northstar/internal/core"
)

const overrideKeyPrefix = "tenant_override:"

// NormalizeTenantID validates that candidate is a canonical 36-character
// hyphenated UUID and returns its lowercased form. Validation is purely
// local; no I/O happens before it passes.
func NormalizeTenantID(candidate string) (string, error) {
	if len(candidate) != 36 {
		return "", fmt.Errorf(
			"tenant id must be 36 characters: %w",
			core.ErrInvalidTenantOverride,
		)
	}

	id, err := uuid.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf(
			"tenant id is not a valid UUID: %w",
			core.ErrInvalidTenantOverride,
		)
	}

	return id.String(), nil
}

// OverrideStore holds the root-only "view as tenant" switch in Redis, keyed
// by session. Entries live at most TTL and are cleared on logout; they are
// never written to long-lived storage.
type OverrideStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewOverrideStore(
	client *redis.Client,
	ttl time.Duration,
	logger *slog.Logger,
) *OverrideStore {
	return &OverrideStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Set stores a validated override for the session. Malformed candidates are
// rejected locally with a warning, leaving any prior override unchanged.
// Callers must enforce that the actor holds the root role; the store has no
// identity context of its own.
func (s *OverrideStore) Set(
	ctx context.Context,
	sessionID, candidate string,
) error {
	normalized, err := NormalizeTenantID(candidate)
	if err != nil {
		s.logger.Warn("rejected malformed tenant override",
			"session_id", sessionID,
			"error", err,
		)
		return err
	}

	key := overrideKeyPrefix + sessionID
	if err := s.client.Set(ctx, key, normalized, s.ttl).Err(); err != nil {
		s.logger.Error("tenant override write failed",
			"session_id", sessionID,
			"error", err,
		)
		return fmt.Errorf("store tenant override: %w", err)
	}

	return nil
}

// Get returns the session's override, or nil when none is set. Storage
// failures degrade to "no override" with a log instead of failing the
// request.
func (s *OverrideStore) Get(ctx context.Context, sessionID string) *string {
	key := overrideKeyPrefix + sessionID

	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		s.logger.Warn("tenant override lookup failed, treating as unset",
			"session_id", sessionID,
			"error", err,
		)
		return nil
	}

	normalized, err := NormalizeTenantID(val)
	if err != nil {
		s.logger.Error("stored tenant override is malformed, ignoring",
			"session_id", sessionID,
		)
		return nil
	}

	return &normalized
}

// Clear removes the session's override. Clearing an absent override is a
// no-op, so repeated calls are safe.
func (s *OverrideStore) Clear(ctx context.Context, sessionID string) error {
	key := overrideKeyPrefix + sessionID
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.Error("tenant override clear failed",
			"session_id", sessionID,
			"error", err,
		)
		return fmt.Errorf("clear tenant override: %w", err)
	}

	return nil
}
