package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndOwner(t *testing.T) {
	v := NewVerifier("secret", "synister", "")

	token, err := v.Issue("alice", time.Minute)
	require.NoError(t, err)

	owner, err := v.Owner(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
}

func TestOwnerCustomClaim(t *testing.T) {
	v := NewVerifier("secret", "", "email")
	token, err := v.Issue("alice@example.com", time.Minute)
	require.NoError(t, err)

	owner, err := v.Owner(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", owner)
}

func TestOwnerRejects(t *testing.T) {
	v := NewVerifier("secret", "synister", "sub")

	expired, err := v.Issue("alice", -time.Minute)
	require.NoError(t, err)

	wrongKey, err := NewVerifier("other", "synister", "sub").Issue("alice", time.Minute)
	require.NoError(t, err)

	wrongIssuer, err := NewVerifier("secret", "elsewhere", "sub").Issue("alice", time.Minute)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice", "iss": "synister"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "alice"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":      "not-a-token",
		"expired":      expired,
		"wrong key":    wrongKey,
		"wrong issuer": wrongIssuer,
		"no expiry":    noExp,
		"none alg":     noneAlg,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Owner(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestOwnerMissingClaim(t *testing.T) {
	v := NewVerifier("secret", "", "sub")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = v.Owner(tok)
	assert.ErrorIs(t, err, ErrMissingOwner)
}

func TestExtractTokenFromBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromBearer("Bearer abc"))
	assert.Equal(t, "", ExtractTokenFromBearer("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromBearer("Bearer "))
}
