// Package utils provides the token and credential primitives the auth
// services are built on: HS256 claim signing and bcrypt hashing.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token verification failures. ErrTokenExpired is reported separately
// from every other parse failure so the caller can distinguish a stale
// token from a forged or malformed one.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the signed payload carried by both access and refresh
// tokens. Subject holds the user id; AuthMethodID pins the token to the
// auth method it was minted for so a refresh token cannot be replayed
// against a different method of the same user.
type Claims struct {
	Username       string `json:"username"`
	AuthMethodType string `json:"amt"`
	AuthMethodID   string `json:"amid"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

// SignedToken pairs a serialized JWT with its expiry so handlers can
// report the expiry to clients without re-parsing the token.
type SignedToken struct {
	Token     string
	ExpiresAt time.Time
}

// NewToken builds and signs an HS256 JWT for the given identity with
// the supplied TTL. Each token carries a fresh UUID jti, which keeps
// refresh tokens unique even when two are minted within the same
// second for the same claims.
func NewToken(secret, userID, username, methodType, methodID, role string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Username:       username,
		AuthMethodType: methodType,
		AuthMethodID:   methodID,
		Role:           role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, ExpiresAt: exp}, nil
}

// ParseToken verifies signature and expiry and returns the claims.
// Expired tokens yield ErrTokenExpired; any other failure (bad
// signature, wrong algorithm, malformed payload) yields ErrTokenInvalid.
func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
