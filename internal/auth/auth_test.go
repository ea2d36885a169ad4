package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "Hunter2"))
	assert.False(t, CheckPassword("hunter2", "hunter2"), "plain text is not a hash")

	assert.True(t, IsHash(hash))
	assert.False(t, IsHash("hunter2"))
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken(42, "alice", "secret", time.Hour)
	require.NoError(t, err)

	c, err := ParseToken(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.UserID)
	assert.Equal(t, "alice", c.Username)
	assert.NotEmpty(t, c.ID)

	diff := time.Until(c.ExpiresAt.Time)
	assert.True(t, diff > 59*time.Minute && diff <= time.Hour, "expiry %v", diff)
}

func TestTokenRejected(t *testing.T) {
	tok, _ := MakeToken(1, "bob", "secret", time.Hour)

	_, err := ParseToken(tok, "wrong-secret")
	assert.Error(t, err)

	_, err = ParseToken("not.a.token", "secret")
	assert.Error(t, err)

	expired, _ := MakeToken(1, "bob", "secret", -time.Minute)
	_, err = ParseToken(expired, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAlgorithmConfusion(t *testing.T) {
	c := Claims{UserID: 1, Username: "eve"}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(unsigned, "secret")
	assert.Error(t, err)
}
