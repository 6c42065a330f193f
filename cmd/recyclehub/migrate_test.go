// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package main

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recyclehub/recyclehub/internal/store"
	"github.com/recyclehub/recyclehub/pkg/errutil"
)

type fakeMigrator struct {
	calls  []string
	steps  int
	forced int
	status *store.Status
	err    error
	closed bool
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.err
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	return f.err
}

func (f *fakeMigrator) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	f.steps = n
	return f.err
}

func (f *fakeMigrator) Force(version int) error {
	f.calls = append(f.calls, "force")
	f.forced = version
	return f.err
}

func (f *fakeMigrator) Status() (*store.Status, error) {
	f.calls = append(f.calls, "status")
	return f.status, f.err
}

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

// useFakeMigrator swaps migratorFactory for the duration of the test and
// records the URL it was given.
func useFakeMigrator(t *testing.T, m *fakeMigrator) *string {
	t.Helper()
	var gotURL string
	orig := migratorFactory
	migratorFactory = func(url string) (migrator, error) {
		gotURL = url
		return m, nil
	}
	t.Cleanup(func() { migratorFactory = orig })
	return &gotURL
}

func TestMigrate_Subcommands(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantCalls []string
		wantOut   string
	}{
		{"bare applies pending", []string{"migrate"}, []string{"up"}, "Migrations completed successfully"},
		{"up", []string{"migrate", "up"}, []string{"up"}, "Migrations completed successfully"},
		{"down rolls back one", []string{"migrate", "down"}, []string{"steps"}, "Rolled back one migration"},
		{"down all", []string{"migrate", "down", "--all"}, []string{"down"}, "All migrations rolled back"},
		{"force", []string{"migrate", "force", "2"}, []string{"force"}, "Forced schema version to 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv("DATABASE_URL", "postgres://db.internal/recyclehub")
			m := &fakeMigrator{}
			gotURL := useFakeMigrator(t, m)

			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, m.calls)
			assert.Contains(t, out, tt.wantOut)
			assert.True(t, m.closed)
			assert.Equal(t, "postgres://db.internal/recyclehub", *gotURL)
		})
	}
}

func TestMigrate_DownStepsBackwards(t *testing.T) {
	isolate(t)
	m := &fakeMigrator{}
	useFakeMigrator(t, m)

	_, err := execute(t, "migrate", "down", "--database-url", "postgres://flag/db")
	require.NoError(t, err)
	assert.Equal(t, -1, m.steps)
}

func TestMigrate_DatabaseURLRequired(t *testing.T) {
	isolate(t)
	m := &fakeMigrator{}
	useFakeMigrator(t, m)

	_, err := execute(t, "migrate", "up")
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Empty(t, m.calls)
}

func TestMigrate_PropagatesFailure(t *testing.T) {
	isolate(t)
	m := &fakeMigrator{err: oops.Code("MIGRATION_UP_FAILED").Wrap(errors.New("dirty database"))}
	useFakeMigrator(t, m)

	_, err := execute(t, "migrate", "up", "--database-url", "postgres://flag/db")
	errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
	assert.True(t, m.closed)
}

func TestMigrate_Status(t *testing.T) {
	isolate(t)
	m := &fakeMigrator{status: &store.Status{Version: 1, Applied: []uint{1}, Pending: []uint{2, 99}}}
	useFakeMigrator(t, m)

	out, err := execute(t, "migrate", "status", "--database-url", "postgres://flag/db")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 1 (clean)")
	assert.Contains(t, out, "[x] 000001_create_users")
	assert.Contains(t, out, "[ ] 000002_")
	assert.Contains(t, out, "[ ] 000099")
	assert.NotContains(t, out, "up to date")
}

func TestFormatStatus_UpToDateAndDirty(t *testing.T) {
	out := formatStatus(&store.Status{Version: 2, Dirty: true, Applied: []uint{1, 2}})
	assert.Contains(t, out, "Current version: 2 (dirty)")
	assert.Contains(t, out, "Schema is up to date")
}

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		input       string
		wantVersion int
		wantErrCode string
	}{
		{input: "3", wantVersion: 3},
		{input: "0", wantVersion: 0},
		{input: "  42", wantVersion: 42},
		{input: "abc", wantErrCode: "INVALID_VERSION"},
		{input: "1.5", wantErrCode: "INVALID_VERSION"},
		{input: "", wantErrCode: "INVALID_VERSION"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			version, err := parseForceVersion(tt.input)
			if tt.wantErrCode != "" {
				errutil.AssertErrorCode(t, err, tt.wantErrCode)
				assert.Equal(t, 0, version)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}
