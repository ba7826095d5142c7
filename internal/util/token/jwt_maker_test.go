package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testKey           = "0123456789abcdef0123456789abcdef"
	testActivationKey = "fedcba9876543210fedcba9876543210"
)

func newTestMaker(t *testing.T) *JWTMaker {
	m, err := NewJWTMaker(testKey, testActivationKey)
	require.NoError(t, err)
	return m
}

func TestNewJWTMakerRejectsShortKey(t *testing.T) {
	_, err := NewJWTMaker("short", "")
	require.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestMaker(t)
	signed, payload, err := m.CreateToken(7, "rider", "rider@example.com", true, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	got, err := m.VertifyToken(signed)
	require.NoError(t, err)
	require.Equal(t, payload.UserID, got.UserID)
	require.Equal(t, "rider", got.Username)
	require.True(t, got.IsStaff)
}

func TestAccessTokenExpired(t *testing.T) {
	m := newTestMaker(t)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	signed, _, err := m.CreateToken(7, "rider", "", false, time.Hour)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VertifyToken(signed)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestAccessTokenTampered(t *testing.T) {
	m := newTestMaker(t)
	signed, _, err := m.CreateToken(7, "rider", "", false, time.Hour)
	require.NoError(t, err)

	other, err := NewJWTMaker("another-key-another-key-another-k", "")
	require.NoError(t, err)
	_, err = other.VertifyToken(signed)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.VertifyToken(signed[:len(signed)-2] + "xx")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenRejectsNoneAlg(t *testing.T) {
	m := newTestMaker(t)
	claims := &Payload{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{audienceAccess},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.VertifyToken(unsigned)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestActivationToken(t *testing.T) {
	m := newTestMaker(t)
	signed, err := m.CreateActivationToken(42, 24*time.Hour)
	require.NoError(t, err)

	require.NoError(t, m.VertifyActivationToken(signed, 42))
	require.ErrorIs(t, m.VertifyActivationToken(signed, 43), ErrInvalidToken)

	// activation token 不能當 access token 用
	_, err = m.VertifyToken(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}
