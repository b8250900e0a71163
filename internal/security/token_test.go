package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-session-secret"

func TestSessionToken_RoundTrip(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)

	userID, err := ParseSessionToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestSessionToken_Expired(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken(testSecret, "user-1", -time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessionToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "a-different-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSessionToken_Tampered(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = ParseSessionToken(tampered, testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ParseSessionToken("not.a.jwt", testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSessionToken_RejectsNonHMACAlgorithm(t *testing.T) {
	t.Parallel()

	claims := SessionClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSessionToken_DistinctPerIssue(t *testing.T) {
	t.Parallel()

	first, err := GenerateSessionToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)
	second, err := GenerateSessionToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	for _, token := range []string{first, second} {
		userID, err := ParseSessionToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
	}
}
