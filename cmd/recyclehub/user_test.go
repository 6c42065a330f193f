// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recyclehub/recyclehub/internal/auth"
	"github.com/recyclehub/recyclehub/pkg/errutil"
)

func userRow(u *auth.User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role",
		"latitude", "longitude", "city", "phone", "gender", "date_of_birth", "profile_photo_url",
		"total_recycled", "challenges_completed", "challenges_joined",
		"email_verified", "email_verified_at", "created_at", "updated_at",
	}).AddRow(
		u.ID.String(), u.Name, u.Email, u.PasswordHash, string(u.Role),
		u.Profile.Location.Latitude, u.Profile.Location.Longitude,
		u.Profile.City, u.Profile.Phone, u.Profile.Gender, u.Profile.DateOfBirth, u.Profile.ProfilePhotoURL,
		u.TotalRecycled, u.ChallengesCompleted, u.ChallengesJoined,
		u.EmailVerified, u.EmailVerifiedAt, u.CreatedAt, u.UpdatedAt,
	)
}

// runSetRoleCmd executes set-role against a mocked pool.
func runSetRoleCmd(t *testing.T, mock pgxmock.PgxPoolIface, args ...string) (string, error) {
	t.Helper()
	deps := &ServeDeps{
		DatabaseConnector: func(context.Context, string, time.Duration) (Database, error) {
			return mock, nil
		},
	}
	cmd := newSetRoleCmd(deps)
	cmd.Flags().String("database-url", "", "")
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append(args, "--database-url", "postgres://db/recyclehub"))
	err := cmd.Execute()
	return buf.String(), err
}

func TestSetRole_PromotesUser(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", testSecret)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	user, err := auth.NewUser("Ada", "ada@example.com", "$argon2id$digest", auth.Profile{}, time.Now())
	require.NoError(t, err)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(userRow(user))
	mock.ExpectExec("UPDATE users SET role").
		WithArgs(user.ID.String(), "admin", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectClose()

	out, err := runSetRoleCmd(t, mock, "--email", " Ada@Example.com ", "--role", "ADMIN")
	require.NoError(t, err)
	assert.Contains(t, out, "Role of ada@example.com set to admin")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRole_UnknownUser(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", testSecret)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectClose()

	_, err = runSetRoleCmd(t, mock, "--email", "ghost@example.com", "--role", "admin")
	errutil.AssertErrorCode(t, err, "AUTH_USER_NOT_FOUND")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRole_RejectsUnknownRoleBeforeConnecting(t *testing.T) {
	isolate(t)
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	_, err = runSetRoleCmd(t, mock, "--email", "ada@example.com", "--role", "root")
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_ROLE")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRole_RequiresPersistentStore(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("RECYCLEHUB_STORE__DRIVER", "memory")
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	_, err = runSetRoleCmd(t, mock, "--email", "ada@example.com", "--role", "admin")
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "key", "store.driver")
}

func TestSetRole_RequiredFlags(t *testing.T) {
	isolate(t)
	_, err := execute(t, "user", "set-role", "--email", "ada@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role")
}
