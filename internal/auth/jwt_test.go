package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlens/airlens/internal/auth"
)

func newVerifier() *auth.Verifier {
	return auth.NewVerifier(auth.VerifierConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.airlens.in",
		Audience:   "airlens-api",
	})
}

func TestVerifier_SignAndVerify(t *testing.T) {
	v := newVerifier()

	token, err := v.Sign("usr_test123", auth.RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_test123", claims.UserID)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.Equal(t, "usr_test123", claims.Subject)
}

func TestVerifier_ExpiredToken(t *testing.T) {
	v := newVerifier()

	token, err := v.Sign("usr_test123", "", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestVerifier_WrongKey(t *testing.T) {
	v := newVerifier()
	token, err := v.Sign("usr_test123", "", time.Hour)
	require.NoError(t, err)

	other := auth.NewVerifier(auth.VerifierConfig{
		SigningKey: "a-different-secret",
		Issuer:     "https://api.airlens.in",
		Audience:   "airlens-api",
	})

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifier_WrongAudience(t *testing.T) {
	issuer := auth.NewVerifier(auth.VerifierConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.airlens.in",
		Audience:   "some-other-api",
	})
	token, err := issuer.Sign("usr_test123", "", time.Hour)
	require.NoError(t, err)

	_, err = newVerifier().Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifier_Garbage(t *testing.T) {
	_, err := newVerifier().Verify("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
