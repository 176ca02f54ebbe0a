package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthUC(t *testing.T, password string) *AuthUseCase {
	t.Helper()
	sum := sha256.Sum256([]byte(password))
	return NewAuthUC(hex.EncodeToString(sum[:]), "test-secret", time.Hour, logger.NewNop())
}

func TestLogin_IssuesParsableToken(t *testing.T) {
	uc := newAuthUC(t, "s3cret")

	res, err := uc.Login(context.Background(), &LoginReq{Password: "s3cret"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	claims, err := uc.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.WithinDuration(t, res.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestLogin_WrongPassword(t *testing.T) {
	uc := newAuthUC(t, "s3cret")

	_, err := uc.Login(context.Background(), &LoginReq{Password: "guess"})
	require.ErrorIs(t, err, e.ErrInvalidCredentials)

	_, err = uc.Login(context.Background(), &LoginReq{})
	require.ErrorIs(t, err, e.ErrValidation)
}

func TestParseToken_Rejects(t *testing.T) {
	uc := newAuthUC(t, "s3cret")
	res, err := uc.Login(context.Background(), &LoginReq{Password: "s3cret"})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		uc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { uc.now = time.Now }()

		_, err := uc.ParseToken(res.Token)
		require.ErrorIs(t, err, e.ErrUnauthorized)
	})

	t.Run("foreign secret", func(t *testing.T) {
		other := NewAuthUC(uc.passwordHash, "other-secret", time.Hour, logger.NewNop())
		_, err := other.ParseToken(res.Token)
		require.ErrorIs(t, err, e.ErrUnauthorized)
	})

	t.Run("wrong role", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "customer",
			"role": "customer",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = uc.ParseToken(raw)
		require.ErrorIs(t, err, e.ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := uc.ParseToken("not-a-token")
		require.ErrorIs(t, err, e.ErrUnauthorized)
	})
}
