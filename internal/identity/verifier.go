// Package identity handles the boundary with the external identity
// provider. The provider authenticates users and issues HS256 access
// tokens; this package verifies them and extracts the caller identity
// that the authorization engine consumes.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/userflow/userflow/internal/config"
)

// Verification errors
var (
	ErrInvalidToken = errors.New("identity: invalid token")
	ErrTokenExpired = errors.New("identity: token expired")
)

// Claims are the provider token claims this core cares about
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates provider-issued access tokens
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a Verifier from identity configuration
func NewVerifier(cfg config.IdentityConfig) (*Verifier, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("identity: jwt secret is required")
	}
	return &Verifier{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
	}, nil
}

// Verify checks the token signature, expiry and issuer, and returns the
// claims. The subject claim is the external identity key.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Sign issues a provider-style token. Exists for tests and local
// development against the same shared secret.
func (v *Verifier) Sign(subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
