// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/recyclehub/recyclehub/internal/auth"
)

// UserRepository is a mutex-guarded auth.UserRepository.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.User
	byEmail map[string]ulid.ULID
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[ulid.ULID]*auth.User),
		byEmail: make(map[string]ulid.ULID),
	}
}

// Create stores a copy of user. The email check and insert share one lock.
func (r *UserRepository) Create(_ context.Context, user *auth.User) error {
	email := auth.NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return oops.Code("USER_CREATE_FAILED").
			With("email", email).
			Wrap(auth.ErrDuplicateEmail)
	}
	if _, exists := r.byID[user.ID]; exists {
		return oops.Code("USER_CREATE_FAILED").
			With("user_id", user.ID.String()).
			Errorf("user ID already exists")
	}

	stored := cloneUser(user)
	stored.Email = email
	r.byID[user.ID] = stored
	r.byEmail[email] = user.ID
	return nil
}

// GetByID returns a copy of the user with the given ID.
func (r *UserRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id.String()).Wrap(auth.ErrNotFound)
	}
	return cloneUser(user), nil
}

// GetByEmail returns a copy of the user registered under email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	email = auth.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
	}
	return cloneUser(r.byID[id]), nil
}

// UpdatePassword replaces the password hash.
func (r *UserRepository) UpdatePassword(_ context.Context, id ulid.ULID, passwordHash string) error {
	return r.update(id, "update password", func(u *auth.User) {
		u.PasswordHash = passwordHash
	})
}

// UpdateRole replaces the role.
func (r *UserRepository) UpdateRole(_ context.Context, id ulid.ULID, role auth.Role) error {
	return r.update(id, "update role", func(u *auth.User) {
		u.Role = role
	})
}

// UpdateProfile replaces the profile.
func (r *UserRepository) UpdateProfile(_ context.Context, id ulid.ULID, profile auth.Profile) error {
	return r.update(id, "update profile", func(u *auth.User) {
		u.Profile = cloneProfile(profile)
	})
}

// MarkEmailVerified sets the verified flag and timestamp.
func (r *UserRepository) MarkEmailVerified(_ context.Context, id ulid.ULID, at time.Time) error {
	return r.update(id, "mark email verified", func(u *auth.User) {
		at := at.UTC()
		u.EmailVerified = true
		u.EmailVerifiedAt = &at
	})
}

func (r *UserRepository) update(id ulid.ULID, operation string, apply func(*auth.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").
			With("operation", operation).
			With("user_id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	apply(user)
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneUser(u *auth.User) *auth.User {
	c := *u
	c.Profile = cloneProfile(u.Profile)
	c.ChallengesJoined = slices.Clone(u.ChallengesJoined)
	if c.ChallengesJoined == nil {
		c.ChallengesJoined = []string{}
	}
	if u.EmailVerifiedAt != nil {
		at := *u.EmailVerifiedAt
		c.EmailVerifiedAt = &at
	}
	return &c
}

func cloneProfile(p auth.Profile) auth.Profile {
	c := p
	if p.Location.Latitude != nil {
		v := *p.Location.Latitude
		c.Location.Latitude = &v
	}
	if p.Location.Longitude != nil {
		v := *p.Location.Longitude
		c.Location.Longitude = &v
	}
	if p.DateOfBirth != nil {
		v := *p.DateOfBirth
		c.DateOfBirth = &v
	}
	return c
}

var _ auth.UserRepository = (*UserRepository)(nil)
