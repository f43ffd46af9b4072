package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerSignAndVerify(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign("register-export", "exports/register.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	obj, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "register-export", obj.Subject)
	require.Equal(t, "exports/register.csv", obj.Key)
	require.True(t, expiresAt.Equal(obj.ExpiresAt))
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return base }

	token, _, err := signer.Sign("register-export", "exports/register.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return base.Add(2 * time.Minute) }
	obj, err := signer.Verify(token)
	require.ErrorIs(t, err, ErrTokenExpired)
	require.Equal(t, "exports/register.pdf", obj.Key)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Sign("a", "exports/a.csv")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = signer.Verify(token + "00")
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = signer.Verify("garbage")
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, _, err = NewSignedURLSigner("", time.Hour).Sign("a", "b")
	require.Error(t, err)
}
