package auth

import (
	"errors"
	"fmt"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed payload of a bearer token.
type Claims struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens encoding {username, role}.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for the identity.
func (t *TokenIssuer) Issue(identity domain.Identity) (string, error) {
	now := t.now()
	claims := &Claims{
		Username: identity.Username,
		Role:     identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses the token and returns the identity it encodes.
// Any signature, expiry or shape problem yields domain.ErrUnauthorized.
func (t *TokenIssuer) Verify(token string) (domain.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return domain.Identity{}, errors.Join(domain.ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Username == "" || !claims.Role.Valid() {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return domain.Identity{Username: claims.Username, Role: claims.Role}, nil
}
