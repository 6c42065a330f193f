// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package memory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recyclehub/recyclehub/internal/auth"
	"github.com/recyclehub/recyclehub/internal/auth/memory"
)

func newUser(t *testing.T, email string) *auth.User {
	t.Helper()
	u, err := auth.NewUser("Ada", email, "$argon2id$digest", auth.Profile{City: "Lyon"}, time.Now())
	require.NoError(t, err)
	return u
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	user := newUser(t, "ada@example.com")

	require.NoError(t, repo.Create(ctx, user))

	byEmail, err := repo.GetByEmail(ctx, "  ADA@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "Lyon", byEmail.Profile.City)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", byID.Email)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	require.NoError(t, repo.Create(ctx, newUser(t, "ada@example.com")))
	err := repo.Create(ctx, newUser(t, "Ada@Example.COM"))
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
}

func TestUserRepository_ConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	const workers = 32
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		dupes     atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		user := newUser(t, "race@example.com")
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := repo.Create(ctx, user)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, auth.ErrDuplicateEmail):
				dupes.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(workers-1), dupes.Load())
}

func TestUserRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	id := ulid.Make()

	_, err := repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, auth.ErrNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, auth.ErrNotFound)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, id, "x"), auth.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateRole(ctx, id, auth.RoleAdmin), auth.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateProfile(ctx, id, auth.Profile{}), auth.ErrNotFound)
	assert.ErrorIs(t, repo.MarkEmailVerified(ctx, id, time.Now()), auth.ErrNotFound)
}

func TestUserRepository_Updates(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	user := newUser(t, "ada@example.com")
	require.NoError(t, repo.Create(ctx, user))

	lat, lng := 45.76, 4.83
	verifiedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "$argon2id$new"))
	require.NoError(t, repo.UpdateRole(ctx, user.ID, auth.RoleAdmin))
	require.NoError(t, repo.UpdateProfile(ctx, user.ID, auth.Profile{
		Location: auth.Location{Latitude: &lat, Longitude: &lng},
		Phone:    "+33100000000",
	}))
	require.NoError(t, repo.MarkEmailVerified(ctx, user.ID, verifiedAt))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$new", got.PasswordHash)
	assert.Equal(t, auth.RoleAdmin, got.Role)
	require.NotNil(t, got.Profile.Location.Latitude)
	assert.InDelta(t, lat, *got.Profile.Location.Latitude, 1e-9)
	assert.Equal(t, "", got.Profile.City)
	assert.True(t, got.EmailVerified)
	require.NotNil(t, got.EmailVerifiedAt)
	assert.True(t, verifiedAt.Equal(*got.EmailVerifiedAt))
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	user := newUser(t, "ada@example.com")
	require.NoError(t, repo.Create(ctx, user))

	user.Name = "changed after create"
	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)

	got.Role = auth.RoleAdmin
	again, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, again.Role)
}
