package migrations_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/slok/rtboot/internal/log"
	"github.com/slok/rtboot/internal/storage/sqlite/migrations"
)

func tableCount(t *testing.T, db *sql.DB) int {
	t.Helper()

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('builds', 'steps')`).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestMigratorUpDown(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(err)
	t.Cleanup(func() { db.Close() })

	m, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db, Logger: log.Noop})
	require.NoError(err)

	version, _, err := m.Version(ctx)
	require.NoError(err)
	assert.Equal(t, uint(0), version)

	require.NoError(m.Up(ctx))
	assert.Equal(t, 2, tableCount(t, db))

	version, dirty, err := m.Version(ctx)
	require.NoError(err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Applying twice is a no-op.
	require.NoError(m.Up(ctx))

	require.NoError(m.Down(ctx))
	assert.Equal(t, 0, tableCount(t, db))
}

func TestNewMigratorWithoutDB(t *testing.T) {
	_, err := migrations.NewMigrator(migrations.MigratorConfig{})
	assert.Error(t, err)
}
