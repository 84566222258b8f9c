package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
)

var (
	ErrMissingSecret = errors.New("access secret is not configured")
	ErrInvalidToken  = fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	ErrBadHeader     = fmt.Errorf("%w: invalid authorization header", domain.ErrUnauthorized)
)

// Claims match the access tokens issued by the auth service.
type Claims struct {
	UserID      int64 `json:"user_id"`
	IsActivated bool  `json:"is_activated"`
	jwt.RegisteredClaims
}

type TokenValidator struct {
	secret []byte
}

func NewTokenValidator(secret string) (*TokenValidator, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenValidator{secret: []byte(secret)}, nil
}

func (v *TokenValidator) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// SessionFromHeader turns an Authorization header into a session.
// An empty header yields the anonymous session.
func (v *TokenValidator) SessionFromHeader(header string) (domain.Session, error) {
	if header == "" {
		return domain.Anonymous(), nil
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return domain.Anonymous(), ErrBadHeader
	}

	claims, err := v.Validate(parts[1])
	if err != nil {
		return domain.Anonymous(), err
	}

	return domain.Session{
		IsAuthenticated: true,
		UserID:          strconv.FormatInt(claims.UserID, 10),
		Token:           parts[1],
	}, nil
}

// Issue signs an access token the same way the auth service does.
func (v *TokenValidator) Issue(userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      userID,
		IsActivated: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
