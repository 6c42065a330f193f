// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recyclehub/recyclehub/internal/auth"
	"github.com/recyclehub/recyclehub/internal/auth/memory"
)

func TestCodeRepository_Scopes(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCodeRepository()
	userID := ulid.Make()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	verify, err := auth.NewVerificationCode(userID, auth.PurposeEmailVerify, "123456", now, 10*time.Minute)
	require.NoError(t, err)
	reset, err := auth.NewVerificationCode(userID, auth.PurposePasswordReset, "123456", now, 10*time.Minute)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, verify))
	require.NoError(t, repo.Create(ctx, reset))

	n, err := repo.DeleteByScope(ctx, userID, auth.PurposeEmailVerify)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindActive(ctx, userID, auth.PurposeEmailVerify, "123456", now)
	assert.ErrorIs(t, err, auth.ErrNotFound)

	found, err := repo.FindActive(ctx, userID, auth.PurposePasswordReset, "123456", now)
	require.NoError(t, err)
	assert.Equal(t, reset.ID, found.ID)
}

func TestCodeRepository_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCodeRepository()
	userID := ulid.Make()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	code, err := auth.NewVerificationCode(userID, auth.PurposeEmailVerify, "000042", now, 10*time.Minute)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, code))

	_, err = repo.FindActive(ctx, userID, auth.PurposeEmailVerify, "000042", now.Add(10*time.Minute-time.Nanosecond))
	require.NoError(t, err)

	_, err = repo.FindActive(ctx, userID, auth.PurposeEmailVerify, "000042", now.Add(10*time.Minute))
	assert.ErrorIs(t, err, auth.ErrNotFound)

	live, err := repo.CountActive(ctx, userID, auth.PurposeEmailVerify, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, live)
}

func TestCodeRepository_DeleteEmptyScope(t *testing.T) {
	n, err := memory.NewCodeRepository().DeleteByScope(context.Background(), ulid.Make(), auth.PurposePasswordReset)
	require.NoError(t, err)
	assert.Zero(t, n)
}
