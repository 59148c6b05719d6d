package auth

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = bytes.Repeat([]byte{7}, 32)

func TestNewPasetoService_KeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("short"))
	assert.Error(t, err)

	svc, err := NewPasetoService(testKey)
	require.NoError(t, err)
	assert.NotNil(t, svc)

	random, err := NewPasetoService(nil)
	require.NoError(t, err)
	assert.NotNil(t, random)
}

func TestPasetoService_RoundTrip(t *testing.T) {
	svc, err := NewPasetoService(testKey)
	require.NoError(t, err)

	token, err := svc.CreateToken(42, "a@x.com", 30*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, token, "v4.local.")

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.WithinDuration(t, claims.IssuedAt.Add(30*time.Minute), claims.ExpiresAt, time.Second)
}

func TestPasetoService_Expired(t *testing.T) {
	svc, err := NewPasetoService(testKey)
	require.NoError(t, err)

	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }
	token, err := svc.CreateToken(1, "a@x.com", time.Minute)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasetoService_RejectsForeignAndGarbage(t *testing.T) {
	svc, err := NewPasetoService(testKey)
	require.NoError(t, err)
	other, err := NewPasetoService(nil)
	require.NoError(t, err)

	token, err := other.CreateToken(1, "a@x.com", time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
