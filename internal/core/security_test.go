// AngelaMos | 2026
// security_test.go

package core_test

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"

	"github.com/northstarhq/northstar/internal/core"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := core.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := core.VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = core.VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := core.VerifyPassword("anything", "not-an-encoded-hash")
	assert.Error(t, err)

	_, err = core.VerifyPassword("anything", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA")
	assert.Error(t, err)
}

func TestVerifyPasswordWithRehashUpgradesLegacyParams(t *testing.T) {
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte("some password"), salt, 2, 32*1024, 2, 32)
	legacy := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, 32*1024, 2, 2,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))

	ok, newHash, err := core.VerifyPasswordWithRehash("some password", legacy)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, newHash, "legacy parameters trigger a rehash")
	assert.Contains(t, newHash, "m=65536,t=1,p=4")

	ok, err = core.VerifyPassword("some password", newHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPasswordWithRehashKeepsCurrentParams(t *testing.T) {
	hash, err := core.HashPassword("some password")
	require.NoError(t, err)

	ok, newHash, err := core.VerifyPasswordWithRehash("some password", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newHash)
}

func TestVerifyPasswordTimingSafeWithMissingAccount(t *testing.T) {
	ok, newHash, err := core.VerifyPasswordTimingSafe("any password", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, newHash)

	empty := ""
	ok, _, err = core.VerifyPasswordTimingSafe("any password", &empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenHashRoundTrip(t *testing.T) {
	token, err := core.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	hash := core.HashToken(token)
	assert.Len(t, hash, 64)
	assert.True(t, core.CompareTokenHash(token, hash))
	assert.False(t, core.CompareTokenHash("other-token", hash))
}

func TestGenerateSecureTokenUnique(t *testing.T) {
	a, err := core.GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := core.GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
