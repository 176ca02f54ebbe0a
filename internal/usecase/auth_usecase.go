package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

const (
	adminSubject = "admin"
	adminRole    = "admin"
)

// AuthUseCase проверяет пароль оператора и выдаёт токен доступа к админ-операциям.
type AuthUseCase struct {
	passwordHash string
	secret       []byte
	ttl          time.Duration
	logger       logger.Logger
	now          func() time.Time
}

func NewAuthUC(passwordHash, secret string, ttl time.Duration, logger logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		passwordHash: passwordHash,
		secret:       []byte(secret),
		ttl:          ttl,
		logger:       logger,
		now:          time.Now,
	}
}

// Login сравнивает sha256(пароль) с сохранённым хэшем и выдаёт JWT (HS256).
func (a *AuthUseCase) Login(_ context.Context, req *LoginReq) (*LoginRes, error) {
	const op = "AuthUseCase.Login"

	if req.Password == "" {
		return nil, e.Wrap(op, e.ErrValidation)
	}

	sum := sha256.Sum256([]byte(req.Password))
	if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(a.passwordHash)) != 1 {
		a.logger.Warnf("%s: invalid admin password", op)
		return nil, e.Wrap(op, e.ErrInvalidCredentials)
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := jwt.MapClaims{
		"sub":  adminSubject,
		"role": adminRole,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &LoginRes{Token: signed, ExpiresAt: expiresAt}, nil
}

// ParseToken проверяет подпись и срок действия токена и требует роль admin.
func (a *AuthUseCase) ParseToken(raw string) (*AdminClaims, error) {
	const op = "AuthUseCase.ParseToken"

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, e.Wrap(op, errors.Join(e.ErrUnauthorized, err))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, e.Wrap(op, e.ErrUnauthorized)
	}

	role, _ := claims["role"].(string)
	if role != adminRole {
		return nil, e.Wrap(op, e.ErrUnauthorized)
	}

	sub, _ := claims.GetSubject()
	exp, _ := claims.GetExpirationTime()
	res := &AdminClaims{Subject: sub, Role: role}
	if exp != nil {
		res.ExpiresAt = exp.Time
	}

	return res, nil
}
