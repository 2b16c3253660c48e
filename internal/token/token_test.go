package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := New("super-secret", time.Hour)

	signed, err := svc.Sign("student@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", claims.Email)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	svc := New("secret", -1*time.Second)

	signed, err := svc.Sign("student@example.com")
	require.NoError(t, err)

	_, err = svc.Verify(signed)
	assert.Error(t, err)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	signed, err := New("right-secret", time.Hour).Sign("student@example.com")
	require.NoError(t, err)

	_, err = New("wrong-secret", time.Hour).Verify(signed)
	assert.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	_, err := New("secret", time.Hour).Verify("not.a.token")
	assert.Error(t, err)
}
