// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package store

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recyclehub/recyclehub/pkg/errutil"
)

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("invalid://url")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestNewMigrator_PostgresqlScheme(t *testing.T) {
	// Connection fails, but the scheme must be recognized.
	_, err := NewMigrator("postgresql://localhost:1/recyclehub")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
	assert.NotContains(t, err.Error(), "unknown driver")
}

// mockMigrate implements migrateIface for testing.
type mockMigrate struct {
	upErr          error
	downErr        error
	stepsErr       error
	versionVal     uint
	versionErr     error
	dirty          bool
	forceErr       error
	closeSourceErr error
	closeDbErr     error
	closed         bool
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Steps(_ int) error            { return m.stepsErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Force(_ int) error            { return m.forceErr }
func (m *mockMigrate) Close() (error, error) {
	m.closed = true
	return m.closeSourceErr, m.closeDbErr
}

func TestMigrator_Up(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"applies", nil, false},
		{"no change is success", migrate.ErrNoChange, false},
		{"failure", errors.New("database locked"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Migrator{m: &mockMigrate{upErr: tt.err}}).Up()
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMigrator_Down(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{downErr: migrate.ErrNoChange}}).Down())

	err := (&Migrator{m: &mockMigrate{downErr: errors.New("constraint violation")}}).Down()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_DOWN_FAILED")
}

func TestMigrator_Steps(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{}}).Steps(1))
	require.NoError(t, (&Migrator{m: &mockMigrate{stepsErr: migrate.ErrNoChange}}).Steps(0))

	err := (&Migrator{m: &mockMigrate{stepsErr: errors.New("invalid step")}}).Steps(-2)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_STEPS_FAILED")
	errutil.AssertErrorContext(t, err, "steps", -2)
}

func TestMigrator_Version(t *testing.T) {
	version, dirty, err := (&Migrator{m: &mockMigrate{versionVal: 2, dirty: true}}).Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.True(t, dirty)

	version, dirty, err = (&Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}).Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	_, _, err = (&Migrator{m: &mockMigrate{versionErr: errors.New("connection lost")}}).Version()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
}

func TestMigrator_Force(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{}}).Force(1))

	err := (&Migrator{m: &mockMigrate{}}).Force(-1)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")

	err = (&Migrator{m: &mockMigrate{forceErr: errors.New("locked")}}).Force(2)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_FORCE_FAILED")
}

func TestMigrator_Status(t *testing.T) {
	tests := []struct {
		name        string
		mock        *mockMigrate
		wantApplied []uint
		wantPending []uint
	}{
		{"fresh database", &mockMigrate{versionErr: migrate.ErrNilVersion}, nil, []uint{1, 2}},
		{"users only", &mockMigrate{versionVal: 1}, []uint{1}, []uint{2}},
		{"latest", &mockMigrate{versionVal: 2}, []uint{1, 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := (&Migrator{m: tt.mock}).Status()
			require.NoError(t, err)
			assert.Equal(t, tt.wantApplied, st.Applied)
			assert.Equal(t, tt.wantPending, st.Pending)
		})
	}

	t.Run("version error", func(t *testing.T) {
		_, err := (&Migrator{m: &mockMigrate{versionErr: errors.New("connection lost")}}).Status()
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "operation", "migration status")
	})
}

func TestMigrator_Close(t *testing.T) {
	tests := []struct {
		name      string
		srcErr    error
		dbErr     error
		component string
	}{
		{"clean", nil, nil, ""},
		{"source", errors.New("source close failed"), nil, "source"},
		{"database", nil, errors.New("db close failed"), "database"},
		{"both", errors.New("source close failed"), errors.New("db close failed"), "both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mm := &mockMigrate{closeSourceErr: tt.srcErr, closeDbErr: tt.dbErr}
			err := (&Migrator{m: mm}).Close()
			assert.True(t, mm.closed)
			if tt.component == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
			errutil.AssertErrorContext(t, err, "component", tt.component)
		})
	}
}

func TestMigrationName(t *testing.T) {
	name, err := MigrationName(1)
	require.NoError(t, err)
	assert.Equal(t, "000001_create_users", name)

	name, err = MigrationName(2)
	require.NoError(t, err)
	assert.Equal(t, "000002_create_verification_codes", name)

	name, err = MigrationName(99)
	require.NoError(t, err)
	assert.Empty(t, name)
}
