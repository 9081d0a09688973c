package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/migrations"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db"), MaxOpenConns: 1}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_seed.sql":   {Data: []byte("SELECT 2;")},
		"001_schema.sql": {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("ignored")},
	}

	got, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "schema", got[0].Name)
	assert.Equal(t, "seed", got[1].Name)
}

func TestLoadMigrations_Errors(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{"schema.sql": {Data: []byte("x")}})
	assert.Error(t, err)

	_, err = LoadMigrations(fstest.MapFS{"000_zero.sql": {Data: []byte("x")}})
	assert.Error(t, err)

	_, err = LoadMigrations(fstest.MapFS{
		"001_a.sql": {Data: []byte("x")},
		"001_b.sql": {Data: []byte("y")},
	})
	assert.Error(t, err)
}

func TestMigrator_RunEmbedded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	migrator := NewMigrator(db, zap.NewNop())

	pending, err := migrator.Pending(ctx, migrations.FS)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	done, err := migrator.Run(ctx, migrations.FS)
	require.NoError(t, err)
	require.Len(t, done, 2)
	assert.Equal(t, "initial_schema", done[0].Name)

	done, err = migrator.Run(ctx, migrations.FS)
	require.NoError(t, err)
	assert.Empty(t, done)

	applied, err := migrator.Applied(ctx)
	require.NoError(t, err)
	assert.True(t, applied[1])
	assert.True(t, applied[2])

	var statuses int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM request_statuses").Scan(&statuses))
	assert.Equal(t, 10, statuses)
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	migrator := NewMigrator(db, zap.NewNop())

	done, err := migrator.Run(ctx, fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE b (id INTEGER); NOT SQL;")},
	})
	require.Error(t, err)
	require.Len(t, done, 1)

	applied, err := migrator.Applied(ctx)
	require.NoError(t, err)
	assert.True(t, applied[1])
	assert.False(t, applied[2])
}

func TestConfig_DSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/x.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", Config{Path: "/tmp/x.db"}.DSN())
}

func TestDB_Health(t *testing.T) {
	assert.NoError(t, openTestDB(t).Health(context.Background()))
}
