// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	DefaultTokenTTL    = 48 * time.Hour
	DefaultTokenIssuer = "recyclehub"
	MinSecretLength    = 32
)

// Claims are the signed contents of a session token.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (ulid.ULID, error) {
	id, err := ulid.Parse(c.Subject)
	if err != nil {
		return ulid.ULID{}, oops.Code("AUTH_INVALID_TOKEN").
			With("subject", c.Subject).
			Wrap(ErrInvalidToken)
	}
	return id, nil
}

// TokenIssuer mints and verifies HS256 session tokens. Validation is
// stateless: a token stays valid until it expires, even if the user's role
// changes after issuance.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithTokenIssuer overrides DefaultTokenIssuer.
func WithTokenIssuer(issuer string) TokenOption {
	return func(t *TokenIssuer) {
		if issuer != "" {
			t.issuer = issuer
		}
	}
}

// WithTokenClock replaces time.Now for issuance and validation.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTokenIssuer creates a TokenIssuer signing with secret.
func NewTokenIssuer(secret []byte, opts ...TokenOption) (*TokenIssuer, error) {
	if len(secret) < MinSecretLength {
		return nil, oops.Code("AUTH_WEAK_SECRET").
			With("min_length", MinSecretLength).
			Errorf("signing secret must be at least %d bytes", MinSecretLength)
	}
	t := &TokenIssuer{
		secret: append([]byte(nil), secret...),
		ttl:    DefaultTokenTTL,
		issuer: DefaultTokenIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// TTL returns the validity window of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue returns a signed token for the user and its expiry time.
func (t *TokenIssuer) Issue(userID ulid.ULID, role Role) (string, time.Time, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return "", time.Time{}, oops.Code("TOKEN_INVALID_USER").Errorf("user ID cannot be zero")
	}

	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Issuer:    t.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, oops.Code("TOKEN_SIGN_FAILED").
			With("operation", "sign token").
			Wrap(err)
	}
	return signed, expiresAt, nil
}

// Validate verifies the signature, issuer and expiry of token.
// It never consults a store.
func (t *TokenIssuer) Validate(token string) (*Claims, error) {
	if token == "" {
		return nil, oops.Code("AUTH_INVALID_TOKEN").Wrap(ErrInvalidToken)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_TOKEN").
			With("reason", err.Error()).
			Wrap(ErrInvalidToken)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}
