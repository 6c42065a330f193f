// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role is the authorization role carried in session tokens.
type Role string

// Known roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts s into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", oops.Code("AUTH_INVALID_ROLE").
			With("role", s).
			Wrapf(ErrValidation, "unknown role %q", s)
	}
}

// Location is a geographic position reported by the mobile client.
type Location struct {
	Latitude  *float64
	Longitude *float64
}

// Profile holds user-editable profile fields. The auth core carries these
// values without interpreting them.
type Profile struct {
	Location        Location
	City            string
	Phone           string
	Gender          string
	DateOfBirth     *time.Time
	ProfilePhotoURL string
}

// User represents a RecycleHub account.
type User struct {
	ID           ulid.ULID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Profile      Profile

	// Recycling counters maintained by other services.
	TotalRecycled       float64
	ChallengesCompleted int
	ChallengesJoined    []string

	EmailVerified   bool
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizeEmail trims and lower-cases an email address. All lookups and
// writes go through this so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates a validated User with a fresh ID and the default role.
func NewUser(name, email, passwordHash string, profile Profile, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, oops.Code("AUTH_VALIDATION").With("field", "name").Wrapf(ErrValidation, "name is required")
	}
	email = NormalizeEmail(email)
	if email == "" {
		return nil, oops.Code("AUTH_VALIDATION").With("field", "email").Wrapf(ErrValidation, "email is required")
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_VALIDATION").With("field", "password_hash").Wrapf(ErrValidation, "password hash is required")
	}

	now = now.UTC()
	return &User{
		ID:               ulid.Make(),
		Name:             name,
		Email:            email,
		PasswordHash:     passwordHash,
		Role:             RoleUser,
		Profile:          profile,
		ChallengesJoined: []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user.
	// Returns ErrDuplicateEmail if a user with the same normalized email exists.
	// The uniqueness check must be atomic with the insert.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdatePassword updates only the password hash for a user.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// UpdateRole changes the role of a user.
	UpdateRole(ctx context.Context, id ulid.ULID, role Role) error

	// UpdateProfile replaces the profile fields of a user.
	UpdateProfile(ctx context.Context, id ulid.ULID, profile Profile) error

	// MarkEmailVerified records that the user confirmed their email at the given time.
	MarkEmailVerified(ctx context.Context, id ulid.ULID, at time.Time) error
}
