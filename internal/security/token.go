package security

import (
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"
)

// TokenVerifier checks bearer tokens issued by the auth service (HS256,
// shared secret). Messaging never issues tokens, it only verifies them.
type TokenVerifier struct {
	secret    []byte
	clockSkew time.Duration
}

func NewTokenVerifier(secret string, clockSkew time.Duration) *TokenVerifier {
	return &TokenVerifier{
		secret:    []byte(secret),
		clockSkew: clockSkew,
	}
}

type accessClaims struct {
	UserID string `json:"userId"`
	jwt.StandardClaims
}

// Verify returns the identity id carried by the token. Every failure mode
// (missing, malformed, bad signature, expired) collapses to ErrUnauthorized so
// the caller cannot distinguish why a credential was rejected.
func (v *TokenVerifier) Verify(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", domain.ErrUnauthorized
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthorized
	}

	now := time.Now()
	if claims.ExpiresAt != 0 {
		exp := time.Unix(claims.ExpiresAt, 0).Add(v.clockSkew)
		if now.After(exp) {
			return "", domain.ErrUnauthorized
		}
	}
	if claims.NotBefore != 0 {
		nbf := time.Unix(claims.NotBefore, 0).Add(-v.clockSkew)
		if now.Before(nbf) {
			return "", domain.ErrUnauthorized
		}
	}

	if claims.UserID == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.UserID, nil
}
