package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoquemkt/internal/pkg/token"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := token.NewService("segredo", "authenticated", time.Hour)

	tk, err := svc.GenerateToken("5b8c9a3e-0000-4000-8000-000000000001", "ana@lojas.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tk)
	require.NoError(t, err)
	assert.Equal(t, "5b8c9a3e-0000-4000-8000-000000000001", claims.UserID())
	assert.Equal(t, "ana@lojas.com", claims.Email)
}

func TestValidate_SegredoErrado(t *testing.T) {
	emissor := token.NewService("outro", "authenticated", time.Hour)
	tk, err := emissor.GenerateToken("u1", "x@y.com")
	require.NoError(t, err)

	_, err = token.NewService("segredo", "authenticated", time.Hour).ValidateToken(tk)
	assert.Error(t, err)
}

func TestValidate_AudienceDiferente(t *testing.T) {
	tk, err := token.NewService("segredo", "service_role", time.Hour).GenerateToken("u1", "x@y.com")
	require.NoError(t, err)

	_, err = token.NewService("segredo", "authenticated", time.Hour).ValidateToken(tk)
	assert.Error(t, err)
}

func TestValidate_Expirado(t *testing.T) {
	svc := token.NewService("segredo", "", -time.Minute)
	tk, err := svc.GenerateToken("u1", "x@y.com")
	require.NoError(t, err)

	_, err = svc.ValidateToken(tk)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidate_AlgoritmoNone(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	tk, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = token.NewService("segredo", "", time.Hour).ValidateToken(tk)
	assert.Error(t, err)
}
