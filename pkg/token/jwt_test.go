package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	req := require.New(t)
	m := NewJWTManager("0123456789abcdef0123456789abcdef", 1, 7)

	access, err := m.GenerateToken(7, "drhouse", "CLINICIAN")
	req.NoError(err)

	claims, err := m.VerifyToken(access, TypeAccess)
	req.NoError(err)
	req.Equal(uint(7), claims.ClinicianID)
	req.Equal("drhouse", claims.Username)
	req.Equal("CLINICIAN", claims.Role)
	req.NotEmpty(claims.ID)
}

func TestJWTManager_RejectsWrongType(t *testing.T) {
	m := NewJWTManager("0123456789abcdef0123456789abcdef", 1, 7)

	refresh, err := m.GenerateRefreshToken(1, "a", "ADMIN")
	require.NoError(t, err)

	_, err = m.VerifyToken(refresh, TypeAccess)
	require.ErrorIs(t, err, ErrWrongTokenType)

	claims, err := m.VerifyToken(refresh, TypeRefresh)
	require.NoError(t, err)
	require.Equal(t, "ADMIN", claims.Role)
}

func TestJWTManager_RejectsOtherSecret(t *testing.T) {
	a := NewJWTManager("0123456789abcdef0123456789abcdef", 1, 7)
	b := NewJWTManager("fedcba9876543210fedcba9876543210", 1, 7)

	tok, err := a.GenerateToken(1, "x", "CLINICIAN")
	require.NoError(t, err)
	_, err = b.VerifyToken(tok, TypeAccess)
	require.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := &JWTManager{secretKey: []byte("0123456789abcdef0123456789abcdef"), accessTokenDur: -time.Minute}
	tok, err := m.GenerateToken(1, "x", "CLINICIAN")
	require.NoError(t, err)

	_, err = m.VerifyToken(tok, TypeAccess)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}
