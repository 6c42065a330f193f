// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// CodeService issues, validates and consumes one-time verification codes.
// The repository is the only source of truth; nothing is cached in memory.
type CodeService struct {
	repo     CodeRepository
	ttl      time.Duration
	maxLive  int
	now      func() time.Time
	generate func() (string, error)
}

// CodeServiceOption configures a CodeService.
type CodeServiceOption func(*CodeService)

// WithCodeTTL overrides DefaultCodeTTL.
func WithCodeTTL(ttl time.Duration) CodeServiceOption {
	return func(s *CodeService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxLiveCodes caps the number of unexpired codes per scope.
// Zero disables the cap. The cap is best effort: the count and the insert
// are separate store calls, so concurrent issues for one scope can overshoot
// it by the number of racing callers.
func WithMaxLiveCodes(n int) CodeServiceOption {
	return func(s *CodeService) {
		if n >= 0 {
			s.maxLive = n
		}
	}
}

// WithClock replaces time.Now, for deterministic expiry tests.
func WithClock(now func() time.Time) CodeServiceOption {
	return func(s *CodeService) {
		if now != nil {
			s.now = now
		}
	}
}

// withGenerator replaces GenerateCode. Used by tests in this package.
func withGenerator(gen func() (string, error)) CodeServiceOption {
	return func(s *CodeService) {
		s.generate = gen
	}
}

// NewCodeService creates a new CodeService.
func NewCodeService(repo CodeRepository, opts ...CodeServiceOption) (*CodeService, error) {
	if repo == nil {
		return nil, oops.Code("CODE_SERVICE_INVALID").Errorf("code repository is required")
	}
	s := &CodeService{
		repo:     repo,
		ttl:      DefaultCodeTTL,
		now:      time.Now,
		generate: GenerateCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the lifetime of newly issued codes.
func (s *CodeService) TTL() time.Duration {
	return s.ttl
}

// Issue generates and stores a new code for the scope and returns the
// plaintext with its expiry. Earlier codes in the scope stay valid.
func (s *CodeService) Issue(ctx context.Context, userID ulid.ULID, purpose Purpose) (string, time.Time, error) {
	now := s.now().UTC()

	if s.maxLive > 0 {
		live, err := s.repo.CountActive(ctx, userID, purpose, now)
		if err != nil {
			return "", time.Time{}, oops.Code("CODE_ISSUE_FAILED").
				With("operation", "count active codes").
				With("purpose", purpose).
				Wrap(err)
		}
		if live >= s.maxLive {
			return "", time.Time{}, oops.Code("AUTH_TOO_MANY_CODES").
				With("purpose", purpose).
				With("limit", s.maxLive).
				Wrap(ErrTooManyCodes)
		}
	}

	plain, err := s.generate()
	if err != nil {
		return "", time.Time{}, oops.Code("CODE_ISSUE_FAILED").
			With("operation", "generate code").
			Wrap(err)
	}

	code, err := NewVerificationCode(userID, purpose, plain, now, s.ttl)
	if err != nil {
		return "", time.Time{}, oops.Code("CODE_ISSUE_FAILED").
			With("operation", "new verification code").
			Wrap(err)
	}

	if err := s.repo.Create(ctx, code); err != nil {
		return "", time.Time{}, oops.Code("CODE_ISSUE_FAILED").
			With("operation", "persist code").
			With("purpose", purpose).
			Wrap(err)
	}

	return plain, code.ExpiresAt, nil
}

// Validate returns nil if submitted matches an unexpired code in the scope.
// Wrong, expired and never-issued codes all yield ErrInvalidOrExpiredCode so
// callers cannot tell them apart. The caller must Consume after success.
func (s *CodeService) Validate(ctx context.Context, userID ulid.ULID, purpose Purpose, submitted string) error {
	if !purpose.Valid() || !ValidCodeFormat(submitted) {
		return oops.Code("AUTH_INVALID_OR_EXPIRED_CODE").Wrap(ErrInvalidOrExpiredCode)
	}

	_, err := s.repo.FindActive(ctx, userID, purpose, submitted, s.now().UTC())
	if errors.Is(err, ErrNotFound) {
		return oops.Code("AUTH_INVALID_OR_EXPIRED_CODE").Wrap(ErrInvalidOrExpiredCode)
	}
	if err != nil {
		return oops.Code("CODE_VALIDATE_FAILED").
			With("operation", "find active code").
			With("purpose", purpose).
			Wrap(err)
	}
	return nil
}

// Consume deletes every code in the scope. It is idempotent so two racing
// verifications of the same code can both call it.
func (s *CodeService) Consume(ctx context.Context, userID ulid.ULID, purpose Purpose) error {
	if _, err := s.repo.DeleteByScope(ctx, userID, purpose); err != nil {
		return oops.Code("CODE_CONSUME_FAILED").
			With("operation", "delete codes by scope").
			With("purpose", purpose).
			Wrap(err)
	}
	return nil
}
