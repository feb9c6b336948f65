package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T, profile Profile) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "nested", "test.db"), Profile: profile})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_CreatesDirectoryAndDefaultsProfile(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "a", "b", "archive.db")})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ProfileArchive, db.Profile())
	assert.True(t, filepath.IsAbs(db.Path()))
	assert.FileExists(t, db.Path())
}

func TestBuildConnectionString(t *testing.T) {
	archive := buildConnectionString("/tmp/a.db", ProfileArchive)
	assert.Contains(t, archive, "/tmp/a.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, archive, "_pragma=synchronous(FULL)")
	assert.Contains(t, archive, "_pragma=foreign_keys(1)")

	scratch := buildConnectionString("file:mem?mode=memory", ProfileScratch)
	assert.Contains(t, scratch, "file:mem?mode=memory&_pragma=synchronous(OFF)")
	assert.NotContains(t, scratch, "journal_mode")
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, ProfileScratch)

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx))

	var count int
	err := db.Conn().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('archive_batches', 'cash_movements', 'transactions')",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestWithTransaction_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, ProfileScratch)
	_, err := db.Conn().ExecContext(ctx, "CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)

	require.NoError(t, WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (1)")
		return err
	}))

	boom := errors.New("boom")
	err = WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (2)"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = WithTransaction(ctx, db.Conn(), func(tx *sql.Tx) error {
		_, _ = tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (3)")
		panic("unexpected")
	})
	assert.ErrorContains(t, err, "panic in transaction")

	var count int
	require.NoError(t, db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM t").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransaction_NilConnection(t *testing.T) {
	err := WithTransaction(context.Background(), nil, func(tx *sql.Tx) error { return nil })
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, ProfileArchive)

	require.NoError(t, db.HealthCheck(ctx))

	require.NoError(t, db.Close())
	assert.Error(t, db.HealthCheck(ctx))
}
