package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	body, err := fs.ReadFile(Migrations, "00001_init.sql")
	require.NoError(t, err)

	s := string(body)
	assert.True(t, strings.Contains(s, "-- +goose Up"))
	assert.True(t, strings.Contains(s, "-- +goose Down"))
	assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS kv")
	assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS scored_members")
}
