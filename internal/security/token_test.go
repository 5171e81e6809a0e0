package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAuthToken_RoundTrip(t *testing.T) {
	t.Parallel()

	token, err := GenerateAuthToken(testSecret, "a@b.com", []string{"user", "admin"}, time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Subject)
	assert.Equal(t, []string{"user", "admin"}, claims.Roles)
	assert.NotNil(t, claims.IssuedAt)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestResetToken_HasSubjectButNoRoles(t *testing.T) {
	t.Parallel()

	token, err := GenerateResetToken(testSecret, "a@b.com", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Subject)
	assert.Empty(t, claims.Roles)
}

func TestTokenKinds(t *testing.T) {
	t.Parallel()

	auth, err := GenerateAuthToken(testSecret, "a@b.com", []string{"user"}, time.Minute)
	require.NoError(t, err)
	reset, err := GenerateResetToken(testSecret, "a@b.com", time.Minute)
	require.NoError(t, err)

	authClaims, err := ParseToken(auth, testSecret)
	require.NoError(t, err)
	assert.Equal(t, TokenKindAuth, authClaims.Kind)

	resetClaims, err := ParseToken(reset, testSecret)
	require.NoError(t, err)
	assert.Equal(t, TokenKindReset, resetClaims.Kind)
}

func TestParseToken_AllFailuresCollapse(t *testing.T) {
	t.Parallel()

	expired, err := GenerateAuthToken(testSecret, "a@b.com", []string{"user"}, -time.Second)
	require.NoError(t, err)

	valid, err := GenerateAuthToken(testSecret, "a@b.com", []string{"user"}, time.Minute)
	require.NoError(t, err)
	tampered := valid[:len(valid)-4] + "AAAA"

	wrongKey, err := GenerateAuthToken("other-secret", "a@b.com", []string{"user"}, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"tampered signature", tampered},
		{"signed with wrong secret", wrongKey},
		{"malformed", "not.a.jwt"},
		{"empty", ""},
		{"garbage segments", strings.Repeat("x", 40)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			claims, err := ParseToken(tt.token, testSecret)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseToken_ExpiryIsEnforcedOverTime(t *testing.T) {
	t.Parallel()

	// Claim timestamps have second precision, so the shortest TTL that
	// is reliably valid at issue time is one second.
	token, err := GenerateAuthToken(testSecret, "a@b.com", []string{"user"}, time.Second)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	require.NoError(t, err)

	time.Sleep(2500 * time.Millisecond)

	_, err = ParseToken(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
