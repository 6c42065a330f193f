// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Verification code configuration.
const (
	CodeDigits     = 6
	DefaultCodeTTL = 10 * time.Minute
)

// codeSpace is the number of distinct codes, 10^CodeDigits.
var codeSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(CodeDigits), nil)

// Purpose distinguishes email-verification codes from password-reset codes
// sharing the same storage shape.
type Purpose string

// Known purposes.
const (
	PurposeEmailVerify   Purpose = "email_verify"
	PurposePasswordReset Purpose = "password_reset"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	return p == PurposeEmailVerify || p == PurposePasswordReset
}

// VerificationCode is a short-lived numeric code scoped to a user and a purpose.
// Codes are never mutated; they are deleted per scope when one is consumed.
type VerificationCode struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	Purpose   Purpose
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewVerificationCode creates a validated VerificationCode created at now.
func NewVerificationCode(userID ulid.ULID, purpose Purpose, code string, now time.Time, ttl time.Duration) (*VerificationCode, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("CODE_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if !purpose.Valid() {
		return nil, oops.Code("CODE_INVALID_PURPOSE").With("purpose", purpose).Errorf("unknown purpose %q", purpose)
	}
	if !ValidCodeFormat(code) {
		return nil, oops.Code("CODE_INVALID_FORMAT").Errorf("code must be %d digits", CodeDigits)
	}
	if ttl <= 0 {
		return nil, oops.Code("CODE_INVALID_TTL").With("ttl", ttl).Errorf("ttl must be positive")
	}

	return &VerificationCode{
		ID:        ulid.Make(),
		UserID:    userID,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// IsExpiredAt returns true if the code can no longer be used at t.
// A code is usable only while ExpiresAt is strictly after t.
func (c *VerificationCode) IsExpiredAt(t time.Time) bool {
	return !c.ExpiresAt.After(t)
}

// GenerateCode returns a uniformly random code in "000000".."999999".
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", oops.Code("CODE_GENERATE_FAILED").
			With("operation", "crypto/rand.Int").
			Wrap(err)
	}
	return fmt.Sprintf("%0*d", CodeDigits, n.Int64()), nil
}

// ValidCodeFormat reports whether s has the shape of a verification code.
func ValidCodeFormat(s string) bool {
	if len(s) != CodeDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CodeRepository manages verification code persistence.
type CodeRepository interface {
	// Create stores a new verification code.
	Create(ctx context.Context, code *VerificationCode) error

	// FindActive returns a code in the (userID, purpose) scope equal to code
	// whose expiry is after now. Returns ErrNotFound if none matches.
	FindActive(ctx context.Context, userID ulid.ULID, purpose Purpose, code string, now time.Time) (*VerificationCode, error)

	// CountActive counts codes in the scope whose expiry is after now.
	CountActive(ctx context.Context, userID ulid.ULID, purpose Purpose, now time.Time) (int, error)

	// DeleteByScope removes every code in the (userID, purpose) scope and
	// returns the number removed. Removing zero codes is not an error.
	DeleteByScope(ctx context.Context, userID ulid.ULID, purpose Purpose) (int64, error)
}
