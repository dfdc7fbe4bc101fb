package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewManager("   ", time.Hour)
	require.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	m, err := NewManager("test-secret", time.Hour)
	require.NoError(t, err)

	signed, err := m.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	userID, err := m.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewManager("secret-a", time.Hour)
	require.NoError(t, err)
	verifier, err := NewManager("secret-b", time.Hour)
	require.NoError(t, err)

	signed, err := issuer.Issue(7)
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	m, err := NewManager("test-secret", time.Hour)
	require.NoError(t, err)

	now := time.Now()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		UserID: 7,
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Verify(signed)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	m, err := NewManager("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = m.Verify("not-a-token")
	assert.Error(t, err)
}

func TestVerifyRejectsMissingUserID(t *testing.T) {
	t.Parallel()

	m, err := NewManager("test-secret", time.Hour)
	require.NoError(t, err)

	now := time.Now()
	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, err := anonymous.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Verify(signed)
	assert.Error(t, err)
}
