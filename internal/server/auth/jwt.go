package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserClaims is the user snapshot embedded into both token kinds.
// The password is never part of it.
type UserClaims struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Dob    *string `json:"dob,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
	Status int16   `json:"status"`
}

// Claims — registered claims plus the user snapshot.
type Claims struct {
	jwt.RegisteredClaims
	UserClaims
}

// TokenIssuer mints and verifies access and refresh tokens. Access and
// refresh tokens are signed with different secrets, so one kind never
// verifies as the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// IssueAccessToken returns a signed access token for u.
func (i *TokenIssuer) IssueAccessToken(u UserClaims) (string, error) {
	tok, _, err := i.issue(u, i.accessSecret, i.accessTTL)
	return tok, err
}

// IssueRefreshToken returns a signed refresh token for u together with its
// expiry, which the caller persists.
func (i *TokenIssuer) IssueRefreshToken(u UserClaims) (string, time.Time, error) {
	return i.issue(u, i.refreshSecret, i.refreshTTL)
}

func (i *TokenIssuer) VerifyAccessToken(token string) (*Claims, error) {
	return i.verify(token, i.accessSecret)
}

func (i *TokenIssuer) VerifyRefreshToken(token string) (*Claims, error) {
	return i.verify(token, i.refreshSecret)
}

func (i *TokenIssuer) issue(u UserClaims, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserClaims: u,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

func (i *TokenIssuer) verify(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
