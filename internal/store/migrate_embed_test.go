// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package store

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, entry := range entries {
		names[entry.Name()] = true
	}
	assert.True(t, names["000001_create_users.up.sql"])
	assert.True(t, names["000001_create_users.down.sql"])

	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	for name := range names {
		assert.True(t, pattern.MatchString(name), "%s should match NNNNNN_name.(up|down).sql", name)
		if stem, ok := strings.CutSuffix(name, ".up.sql"); ok {
			assert.True(t, names[stem+".down.sql"], "%s has no down migration", name)
		}
	}
}

func TestMigrationsFS_UsersSchema(t *testing.T) {
	raw, err := migrationsFS.ReadFile("migrations/000001_create_users.up.sql")
	require.NoError(t, err)
	sql := string(raw)

	assert.Contains(t, sql, "CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (LOWER(email))")
	assert.Contains(t, sql, "CHECK (role IN ('student', 'teacher'))")
}
