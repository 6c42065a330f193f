// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/recyclehub/recyclehub/internal/auth"
)

type scope struct {
	userID  ulid.ULID
	purpose auth.Purpose
}

// CodeRepository is a mutex-guarded auth.CodeRepository. Expired codes are
// kept until their scope is consumed, matching the Postgres store.
type CodeRepository struct {
	mu    sync.Mutex
	codes map[scope][]auth.VerificationCode
}

// NewCodeRepository creates an empty CodeRepository.
func NewCodeRepository() *CodeRepository {
	return &CodeRepository{codes: make(map[scope][]auth.VerificationCode)}
}

// Create appends a copy of code to its scope.
func (r *CodeRepository) Create(_ context.Context, code *auth.VerificationCode) error {
	if code == nil {
		return oops.Code("CODE_CREATE_FAILED").Errorf("code is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scope{code.UserID, code.Purpose}
	r.codes[key] = append(r.codes[key], *code)
	return nil
}

// FindActive returns the first code in scope equal to code and unexpired at now.
func (r *CodeRepository) FindActive(_ context.Context, userID ulid.ULID, purpose auth.Purpose, code string, now time.Time) (*auth.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.codes[scope{userID, purpose}] {
		if c.Code == code && !c.IsExpiredAt(now) {
			found := c
			return &found, nil
		}
	}
	return nil, oops.Code("CODE_NOT_FOUND").
		With("user_id", userID.String()).
		With("purpose", purpose).
		Wrap(auth.ErrNotFound)
}

// CountActive counts unexpired codes in scope.
func (r *CodeRepository) CountActive(_ context.Context, userID ulid.ULID, purpose auth.Purpose, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.codes[scope{userID, purpose}] {
		if !c.IsExpiredAt(now) {
			n++
		}
	}
	return n, nil
}

// DeleteByScope drops every code in scope.
func (r *CodeRepository) DeleteByScope(_ context.Context, userID ulid.ULID, purpose auth.Purpose) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scope{userID, purpose}
	n := int64(len(r.codes[key]))
	delete(r.codes, key)
	return n, nil
}

var _ auth.CodeRepository = (*CodeRepository)(nil)
