// Package auth verifies the bearer tokens the upstream authentication layer
// issues for tenant-scoped requests.
package auth

import (
	"time"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/config"
	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingNamespace = errors.New("missing tenant_namespace in claims")
)

// Claims are the claims of a tenant-scoped token
type Claims struct {
	jwt.RegisteredClaims
	TenantNamespace string `json:"tenant_namespace"`
}

// TokenService signs and validates HS256 tenant tokens
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService from the auth settings
func NewTokenService(cfg config.AuthConfig) *TokenService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenService{
		secret: []byte(cfg.SigningSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		leeway: 30 * time.Second,
		now:    time.Now,
	}
}

// Issue signs a token for namespace valid for the configured TTL. Used by
// tenantctl and tests; production tokens come from the upstream layer.
func (s *TokenService) Issue(namespace, subject string) (string, time.Time, error) {
	if namespace == "" {
		return "", time.Time{}, ErrMissingNamespace
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TenantNamespace: namespace,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to sign token")
	}
	return signed, expiresAt, nil
}

// Validate parses tokenString and returns its claims. Only HS256 is accepted
// and an expiry is required.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TenantNamespace == "" {
		return nil, ErrMissingNamespace
	}
	return claims, nil
}
