// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/recyclehub/recyclehub/internal/auth"
)

const emailUniqueConstraint = "users_email_key"

const userColumns = `id, name, email, password_hash, role,
	latitude, longitude, city, phone, gender, date_of_birth, profile_photo_url,
	total_recycled, challenges_completed, challenges_joined,
	email_verified, email_verified_at, created_at, updated_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts user. The users_email_key constraint makes the email check
// atomic with the insert.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	joined := user.ChallengesJoined
	if joined == nil {
		joined = []string{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		user.ID.String(),
		user.Name,
		auth.NormalizeEmail(user.Email),
		user.PasswordHash,
		string(user.Role),
		user.Profile.Location.Latitude,
		user.Profile.Location.Longitude,
		user.Profile.City,
		user.Profile.Phone,
		user.Profile.Gender,
		user.Profile.DateOfBirth,
		user.Profile.ProfilePhotoURL,
		user.TotalRecycled,
		user.ChallengesCompleted,
		joined,
		user.EmailVerified,
		user.EmailVerifiedAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isEmailConflict(err) {
		return oops.Code("USER_CREATE_FAILED").
			With("email", user.Email).
			Wrap(auth.ErrDuplicateEmail)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	return nil
}

func isEmailConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == emailUniqueConstraint
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("user_id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user by id").
			With("user_id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	email = auth.NormalizeEmail(email)
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// UpdatePassword updates only the password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	return r.exec(ctx, id, "update password",
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		passwordHash, time.Now().UTC())
}

// UpdateRole updates only the role.
func (r *UserRepository) UpdateRole(ctx context.Context, id ulid.ULID, role auth.Role) error {
	return r.exec(ctx, id, "update role",
		`UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`,
		string(role), time.Now().UTC())
}

// UpdateProfile replaces every profile column.
func (r *UserRepository) UpdateProfile(ctx context.Context, id ulid.ULID, p auth.Profile) error {
	return r.exec(ctx, id, "update profile", `
		UPDATE users SET
			latitude = $2,
			longitude = $3,
			city = $4,
			phone = $5,
			gender = $6,
			date_of_birth = $7,
			profile_photo_url = $8,
			updated_at = $9
		WHERE id = $1
	`,
		p.Location.Latitude,
		p.Location.Longitude,
		p.City,
		p.Phone,
		p.Gender,
		p.DateOfBirth,
		p.ProfilePhotoURL,
		time.Now().UTC(),
	)
}

// MarkEmailVerified sets email_verified and its timestamp.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id ulid.ULID, at time.Time) error {
	return r.exec(ctx, id, "mark email verified",
		`UPDATE users SET email_verified = TRUE, email_verified_at = $2, updated_at = $3 WHERE id = $1`,
		at.UTC(), time.Now().UTC())
}

// exec runs a single-row update keyed by id, mapping zero rows to ErrNotFound.
func (r *UserRepository) exec(ctx context.Context, id ulid.ULID, operation, sql string, args ...any) error {
	result, err := r.pool.Exec(ctx, sql, append([]any{id.String()}, args...)...)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", operation).
			With("user_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("operation", operation).
			With("user_id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans a row selected with userColumns.
// pgx.ErrNoRows is returned unwrapped for callers to classify.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		u     auth.User
		idStr string
		role  string
	)
	err := row.Scan(
		&idStr,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.Profile.Location.Latitude,
		&u.Profile.Location.Longitude,
		&u.Profile.City,
		&u.Profile.Phone,
		&u.Profile.Gender,
		&u.Profile.DateOfBirth,
		&u.Profile.ProfilePhotoURL,
		&u.TotalRecycled,
		&u.ChallengesCompleted,
		&u.ChallengesJoined,
		&u.EmailVerified,
		&u.EmailVerifiedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context
		}
		return nil, oops.Code("USER_SCAN_FAILED").With("operation", "scan user").Wrap(err)
	}

	u.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").With("id", idStr).Wrap(err)
	}
	u.Role = auth.Role(role)
	if u.ChallengesJoined == nil {
		u.ChallengesJoined = []string{}
	}
	return &u, nil
}

var _ auth.UserRepository = (*UserRepository)(nil)
