package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atelier-market/identity-api/internal/core/domain"
	"github.com/atelier-market/identity-api/internal/core/ports"
)

const defaultTokenTTL = 24 * time.Hour

// accessClaims is the wire shape of the token payload.
type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTCodec signs and verifies HS256 bearer tokens with a process-wide secret.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTCodec builds a codec. An empty secret is a configuration error and is
// rejected here so the process fails at startup, not on the first request.
func NewJWTCodec(secret string, ttl time.Duration) (*JWTCodec, error) {
	if secret == "" {
		return nil, domain.ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &JWTCodec{secret: []byte(secret), ttl: ttl}, nil
}

func (c *JWTCodec) Issue(subjectID, role string) (string, error) {
	now := time.Now().UTC()
	claims := accessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *JWTCodec) Verify(token string) (*ports.Claims, error) {
	claims := &accessClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}

	return &ports.Claims{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
