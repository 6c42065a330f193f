// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/recyclehub/recyclehub/internal/auth"
)

// CodeRepository implements auth.CodeRepository using PostgreSQL.
type CodeRepository struct {
	pool Pool
}

// NewCodeRepository creates a new CodeRepository.
func NewCodeRepository(pool Pool) *CodeRepository {
	return &CodeRepository{pool: pool}
}

// Create inserts a verification code.
func (r *CodeRepository) Create(ctx context.Context, code *auth.VerificationCode) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO verification_codes (id, user_id, purpose, code, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		code.ID.String(),
		code.UserID.String(),
		string(code.Purpose),
		code.Code,
		code.ExpiresAt,
		code.CreatedAt,
	)
	if err != nil {
		return oops.Code("CODE_CREATE_FAILED").
			With("operation", "insert code").
			With("user_id", code.UserID.String()).
			With("purpose", code.Purpose).
			Wrap(err)
	}
	return nil
}

// FindActive returns a matching code with expires_at after now.
func (r *CodeRepository) FindActive(ctx context.Context, userID ulid.ULID, purpose auth.Purpose, code string, now time.Time) (*auth.VerificationCode, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, expires_at, created_at
		FROM verification_codes
		WHERE user_id = $1 AND purpose = $2 AND code = $3 AND expires_at > $4
		LIMIT 1
	`, userID.String(), string(purpose), code, now)

	var (
		idStr string
		found = auth.VerificationCode{UserID: userID, Purpose: purpose, Code: code}
	)
	err := row.Scan(&idStr, &found.ExpiresAt, &found.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CODE_NOT_FOUND").
			With("user_id", userID.String()).
			With("purpose", purpose).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CODE_FIND_FAILED").
			With("operation", "find active code").
			With("user_id", userID.String()).
			Wrap(err)
	}

	found.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("CODE_INVALID_ID").With("id", idStr).Wrap(err)
	}
	return &found, nil
}

// CountActive counts unexpired codes in scope.
func (r *CodeRepository) CountActive(ctx context.Context, userID ulid.ULID, purpose auth.Purpose, now time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM verification_codes
		WHERE user_id = $1 AND purpose = $2 AND expires_at > $3
	`, userID.String(), string(purpose), now).Scan(&n)
	if err != nil {
		return 0, oops.Code("CODE_COUNT_FAILED").
			With("operation", "count active codes").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return n, nil
}

// DeleteByScope removes every code for the user and purpose.
func (r *CodeRepository) DeleteByScope(ctx context.Context, userID ulid.ULID, purpose auth.Purpose) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM verification_codes WHERE user_id = $1 AND purpose = $2`,
		userID.String(), string(purpose))
	if err != nil {
		return 0, oops.Code("CODE_DELETE_FAILED").
			With("operation", "delete codes by scope").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

var _ auth.CodeRepository = (*CodeRepository)(nil)
