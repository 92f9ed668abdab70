package repositories

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeline/internal/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, DialectSQLite, filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(ctx, db, DialectSQLite))
	return db
}

func seedStage(t *testing.T, db Querier, tenantID int64, name string, position int) *models.Stage {
	t.Helper()
	now := Now()
	s := &models.Stage{TenantID: tenantID, Name: name, Color: models.DefaultStageColor, Position: position, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewStageRepository(db).Create(context.Background(), s))
	return s
}

func seedDeal(t *testing.T, db Querier, tenantID int64, title string, stageID *int64) *models.Deal {
	t.Helper()
	now := Now()
	d := &models.Deal{
		TenantID:       tenantID,
		ClientID:       1,
		Title:          title,
		Status:         models.DealOpen,
		CurrentStageID: stageID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, NewDealRepository(db).Create(context.Background(), d))
	return d
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, Migrate(context.Background(), db, DialectSQLite))
}

func TestMigrateUnknownDialect(t *testing.T) {
	db := setupDB(t)
	err := Migrate(context.Background(), db, "oracle")
	require.Error(t, err)
}

func TestOpenUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	require.Error(t, err)
}

func TestRunInTxCommitsOnSuccess(t *testing.T) {
	db := setupDB(t)
	tx := NewTxManager(db)
	ctx := context.Background()

	err := tx.RunInTx(ctx, func(q Querier) error {
		seedStage(t, q, 1, "Lead", 1)
		return nil
	})
	require.NoError(t, err)

	n, err := NewStageRepository(db).CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	db := setupDB(t)
	tx := NewTxManager(db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := tx.RunInTx(ctx, func(q Querier) error {
		seedStage(t, q, 1, "Lead", 1)
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := NewStageRepository(db).CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunInTxRollsBackOnPanic(t *testing.T) {
	db := setupDB(t)
	tx := NewTxManager(db)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = tx.RunInTx(ctx, func(q Querier) error {
			seedStage(t, q, 1, "Lead", 1)
			panic("boom")
		})
	})

	n, err := NewStageRepository(db).CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNowIsUTCMicroseconds(t *testing.T) {
	now := Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%1000)
}
