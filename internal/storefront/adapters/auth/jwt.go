// Package auth issues and verifies the bearer tokens that carry the
// authenticated principal.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

const (
	DefaultTTL = 24 * time.Hour
	issuer     = "mosolar-storefront"
)

var ErrInvalidToken = errors.New("auth: invalid token")

type Claims struct {
	Role     domain.Role `json:"role"`
	Username string      `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// JWT signs tokens with HMAC-SHA256.
type JWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ app.TokenIssuer = (*JWT)(nil)

func NewJWT(secret string, ttl time.Duration) (*JWT, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("auth: jwt secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JWT{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (j *JWT) Issue(user *domain.User) (string, time.Time, error) {
	now := j.now()
	exp := now.Add(j.ttl)
	claims := Claims{
		Role:     user.Role,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return token, exp, nil
}

// Parse verifies a token and resolves the principal it names.
func (j *JWT) Parse(token string) (domain.Principal, error) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	})
	if err != nil {
		return domain.Anonymous(), fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Issuer != issuer || !claims.Role.Valid() {
		return domain.Anonymous(), ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return domain.Anonymous(), ErrInvalidToken
	}
	return domain.NewPrincipal(uint(id), claims.Role), nil
}
