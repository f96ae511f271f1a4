package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"kiosk_pos_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDBConfig(t *testing.T) *config.DatabaseConfig {
	t.Helper()
	cfg := config.Default().Database
	cfg.Path = filepath.Join(t.TempDir(), "kiosk_test.db")
	return &cfg
}

func TestOpenApplySchemaAndSeed(t *testing.T) {
	cfg := testDBConfig(t)
	db, err := Open(*cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, ApplySchema(db, DriverSQLite))
	require.NoError(t, ApplySchema(db, DriverSQLite), "schema must be idempotent")

	ctx := context.Background()
	n, err := Seed(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, len(seedItems), n)

	n, err = Seed(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n, "seed only runs on an empty catalog")

	var categories int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&categories))
	assert.Equal(t, len(seedCategories), categories)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := config.Default().Database
	cfg.Driver = "oracle"
	_, err := Open(cfg)
	assert.Error(t, err)
}

func TestErrorClassification(t *testing.T) {
	cfg := testDBConfig(t)
	db, err := Open(*cfg)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, ApplySchema(db, DriverSQLite))

	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO categories (name, created_at) VALUES ($1, $2)`, "Meals", now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO categories (name, created_at) VALUES ($1, $2)`, "Meals", now)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsBusy(err))

	_, err = db.Exec(`INSERT INTO stock_movements (item_id, delta, reason, created_at) VALUES ($1, $2, $3, $4)`,
		9999, -1, "sale", now)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))

	assert.True(t, IsBusy(fmt.Errorf("wrapped: %w", ErrBusy)))
	assert.False(t, IsBusy(nil))
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	cfg := testDBConfig(t)
	db, err := Open(*cfg)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, ApplySchema(db, DriverSQLite))

	boom := errors.New("boom")
	err = RunInTx(context.Background(), db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO categories (name, created_at) VALUES ($1, $2)`, "Snacks", time.Now().UTC()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&count))
	assert.Zero(t, count)
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := WithRetry(ctx, 5, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("attempt %d: %w", calls, ErrBusy)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	permanent := errors.New("constraint failed")
	err = WithRetry(ctx, 5, func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls, "non-busy errors are not retried")

	calls = 0
	err = WithRetry(ctx, 2, func() error {
		calls++
		return ErrBusy
	})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 3, calls, "one attempt plus two retries")
}
