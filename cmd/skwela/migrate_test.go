// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aytsuu/Skwela/pkg/errutil"
)

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErr     bool
	}{
		{name: "valid integer", input: "3", wantVersion: 3},
		{name: "zero is valid", input: "0", wantVersion: 0},
		{name: "leading whitespace is handled", input: "  42", wantVersion: 42},
		{name: "non-numeric", input: "abc", wantErr: true},
		{name: "float", input: "1.5", wantErr: true},
		{name: "trailing characters", input: "3abc", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseForceVersion(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "INVALID_VERSION")
				assert.Equal(t, 0, version)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

type fakeMigrator struct {
	version     uint
	dirty       bool
	pending     []uint
	upCalled    bool
	downCalled  bool
	forced      *int
	upErr       error
	closeCalled bool
}

func (m *fakeMigrator) Up() error {
	m.upCalled = true
	return m.upErr
}

func (m *fakeMigrator) Down() error {
	m.downCalled = true
	return nil
}

func (m *fakeMigrator) Force(v int) error {
	m.forced = &v
	return nil
}

func (m *fakeMigrator) Version() (uint, bool, error) { return m.version, m.dirty, nil }

func (m *fakeMigrator) PendingMigrations() ([]uint, error) { return m.pending, nil }

func (m *fakeMigrator) AppliedMigrations() ([]uint, error) { return nil, nil }

func (m *fakeMigrator) Close() error {
	m.closeCalled = true
	return nil
}

// runMigrate executes the migrate command against fake.
func runMigrate(t *testing.T, fake *fakeMigrator, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SKWELA_DATABASE_URL", "postgres://localhost/skwela")

	var gotURL string
	orig := migratorFactory
	migratorFactory = func(url string) (Migrator, error) {
		gotURL = url
		return fake, nil
	}
	t.Cleanup(func() { migratorFactory = orig })

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--env-file", ""}, append([]string{"migrate"}, args...)...))

	err := cmd.Execute()
	if err == nil {
		assert.Equal(t, "postgres://localhost/skwela", gotURL)
	}
	return buf.String(), err
}

func TestMigrateUp(t *testing.T) {
	fake := &fakeMigrator{pending: []uint{1, 2}}

	out, err := runMigrate(t, fake, "up")
	require.NoError(t, err)

	assert.True(t, fake.upCalled)
	assert.True(t, fake.closeCalled)
	assert.Contains(t, out, "Applying 2 migration(s)")
}

func TestMigrate_DefaultsToUp(t *testing.T) {
	fake := &fakeMigrator{pending: []uint{1}}

	_, err := runMigrate(t, fake)
	require.NoError(t, err)
	assert.True(t, fake.upCalled)
}

func TestMigrateUp_NothingPending(t *testing.T) {
	fake := &fakeMigrator{}

	out, err := runMigrate(t, fake, "up")
	require.NoError(t, err)

	assert.False(t, fake.upCalled)
	assert.Contains(t, out, "up to date")
}

func TestMigrateUp_Failure(t *testing.T) {
	fake := &fakeMigrator{pending: []uint{1}, upErr: oops.Code("MIGRATION_UP_FAILED").Wrap(errors.New("syntax error"))}

	_, err := runMigrate(t, fake, "up")
	errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
	assert.True(t, fake.closeCalled)
}

func TestMigrateDown(t *testing.T) {
	fake := &fakeMigrator{}

	_, err := runMigrate(t, fake, "down")
	require.NoError(t, err)
	assert.True(t, fake.downCalled)
}

func TestMigrateStatus(t *testing.T) {
	fake := &fakeMigrator{version: 1, pending: []uint{2}}

	out, err := runMigrate(t, fake, "status")
	require.NoError(t, err)

	assert.Contains(t, out, "Current version: 1 (clean)")
	assert.Contains(t, out, "000002_users_refresh_token_index")
}

func TestMigrateForce(t *testing.T) {
	fake := &fakeMigrator{}

	_, err := runMigrate(t, fake, "force", "1")
	require.NoError(t, err)
	require.NotNil(t, fake.forced)
	assert.Equal(t, 1, *fake.forced)
}

func TestMigrateForce_RejectsBadVersion(t *testing.T) {
	fake := &fakeMigrator{}

	_, err := runMigrate(t, fake, "force", "x")
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
	assert.Nil(t, fake.forced)
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SKWELA_DATABASE_URL", "")

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--env-file", "", "migrate", "status"})

	err := cmd.Execute()
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}
