//go:build integration

package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picktrack/tracking/internal/models"
	"picktrack/tracking/internal/pickstore"
)

func testPick(id string) *models.Pick {
	return &models.Pick{
		ID:        id,
		Model:     "props_ai",
		Subject:   "Jayson Tatum",
		Category:  models.CategoryPlayerProp,
		Side:      models.SideOver,
		StatType:  "points",
		Line:      27.5,
		Price:     -110,
		Stake:     1,
		EventTime: time.Now().Add(-24 * time.Hour),
	}
}

func TestPickRepository_CreateAndGet(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	pick := testPick("it-p1")
	require.NoError(t, db.Picks.Create(ctx, pick))
	assert.False(t, pick.CreatedAt.IsZero(), "Create should backfill timestamps")

	got, err := db.Picks.GetByID(ctx, "it-p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.ProfitLoss)

	_, err = db.Picks.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, pickstore.ErrNotFound))
}

func TestPickRepository_DuplicateID(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	require.NoError(t, db.Picks.Create(ctx, testPick("it-p1")))

	err := db.Picks.Create(ctx, testPick("it-p1"))
	assert.True(t, errors.Is(err, pickstore.ErrDuplicate))
}

func TestPickRepository_SettleIsIdempotent(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	require.NoError(t, db.Picks.Create(ctx, testPick("it-p1")))

	obs := 31.0
	applied, err := db.Picks.Settle(ctx, "it-p1", models.Settlement{
		Status: models.StatusWon, ObservedValue: &obs, ProfitLoss: 0.91, SettledBy: "reconciler",
	})
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = db.Picks.Settle(ctx, "it-p1", models.Settlement{
		Status: models.StatusLost, ProfitLoss: -1, SettledBy: "reconciler",
	})
	require.NoError(t, err)
	assert.False(t, applied, "settling a terminal pick is a no-op")

	got, err := db.Picks.GetByID(ctx, "it-p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusWon, got.Status)
	require.NotNil(t, got.ProfitLoss)
	assert.Equal(t, 0.91, *got.ProfitLoss)
}

func TestPickRepository_ListPending(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	old := testPick("it-old")
	old.EventTime = time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Picks.Create(ctx, old))

	fresh := testPick("it-fresh")
	fresh.EventTime = time.Now().Add(24 * time.Hour)
	require.NoError(t, db.Picks.Create(ctx, fresh))

	pending, err := db.Picks.ListPending(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "it-old", pending[0].ID)
}

func TestPickRepository_CorrectReopens(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	require.NoError(t, db.Picks.Create(ctx, testPick("it-p1")))

	obs := 31.0
	_, err := db.Picks.Settle(ctx, "it-p1", models.Settlement{
		Status: models.StatusWon, ObservedValue: &obs, ProfitLoss: 0.91, SettledBy: "reconciler",
	})
	require.NoError(t, err)

	require.NoError(t, db.Picks.Correct(ctx, "it-p1", models.Settlement{
		Status: models.StatusPending, SettledBy: "manual",
	}))

	got, err := db.Picks.GetByID(ctx, "it-p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.ProfitLoss)
	assert.Nil(t, got.GradedAt)
}

func TestPickRepository_CountByStatus(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	require.NoError(t, db.Picks.Create(ctx, testPick("it-p1")))
	require.NoError(t, db.Picks.Create(ctx, testPick("it-p2")))

	_, err := db.Picks.Settle(ctx, "it-p1", models.Settlement{
		Status: models.StatusVoid, ProfitLoss: 0, SettledBy: "reconciler",
	})
	require.NoError(t, err)

	counts, err := db.Picks.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.StatusPending])
	assert.Equal(t, 1, counts[models.StatusVoid])
}
