package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picktrack/tracking/internal/jsonstore"
	"picktrack/tracking/internal/models"
)

func settled(id, model, status string, stake, profitLoss float64) *models.Pick {
	pl := profitLoss
	return &models.Pick{
		ID: id, Model: model, Subject: "Jayson Tatum",
		Category: models.CategoryPlayerProp, Side: models.SideOver, StatType: "points",
		Line: 27.5, Price: -110, Stake: stake,
		EventTime: time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC),
		Status:    status, ProfitLoss: &pl,
	}
}

func TestAggregate(t *testing.T) {
	picks := []*models.Pick{
		settled("w1", "props_ai", models.StatusWon, 1, 0.91),
		settled("w2", "props_ai", models.StatusWon, 1, 0.91),
		settled("l1", "props_ai", models.StatusLost, 1, -1),
		settled("p1", "props_ai", models.StatusPush, 1, 0),
		settled("v1", "props_ai", models.StatusVoid, 1, 0),
	}

	s := Aggregate("props_ai", "", picks)

	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, 1, s.Pushes)
	assert.Equal(t, 1, s.Voids)

	// pushes and voids do not count against the record
	assert.Equal(t, 3, s.Graded())
	assert.InDelta(t, 2.0/3.0, s.WinRate, 0.0001)

	assert.InDelta(t, 3.0, s.UnitsStaked, 0.0001)
	assert.InDelta(t, 0.82, s.UnitsReturned, 0.0001)
	assert.InDelta(t, 0.82/3.0, s.ROI, 0.0001)
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate("props_ai", "", nil)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.ROI)
	assert.Zero(t, s.Graded())
}

func TestAggregate_CLV(t *testing.T) {
	// took -110, closed -130 on the win; no closing price on the loss
	won := settled("w1", "props_ai", models.StatusWon, 1, 0.91)
	closing := -130
	won.ClosingPrice = &closing
	lost := settled("l1", "props_ai", models.StatusLost, 1, -1)

	s := Aggregate("props_ai", "", []*models.Pick{won, lost})
	assert.Equal(t, 1, s.CLVSamples)
	assert.Greater(t, s.AvgCLV, 0.0)
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	store, err := jsonstore.Open(t.TempDir())
	require.NoError(t, err)

	for _, p := range []*models.Pick{
		settled("w1", "props_ai", models.StatusPending, 1, 0),
		settled("w2", "spreads_ai", models.StatusPending, 1, 0),
	} {
		p.Status = ""
		p.ProfitLoss = nil
		require.NoError(t, store.Create(ctx, p))
	}

	obs := 31.0
	_, err = store.Settle(ctx, "w1", models.Settlement{
		Status: models.StatusWon, ObservedValue: &obs, ProfitLoss: 0.91, SettledBy: "reconciler",
	})
	require.NoError(t, err)

	summaries, err := Summarize(ctx, store)
	require.NoError(t, err)

	// overall rollup first, then models alphabetically
	require.Len(t, summaries, 2) // only props_ai has terminal picks
	assert.Equal(t, "overall", summaries[0].Model)
	assert.Equal(t, 1, summaries[0].Wins)
	assert.Equal(t, "props_ai", summaries[1].Model)
}

func TestSummarizeByCategory(t *testing.T) {
	ctx := context.Background()
	store, err := jsonstore.Open(t.TempDir())
	require.NoError(t, err)

	prop := settled("p1", "mixed_ai", "", 1, 0)
	prop.Status = ""
	prop.ProfitLoss = nil
	require.NoError(t, store.Create(ctx, prop))

	bos := "BOS"
	spread := &models.Pick{
		ID: "s1", Model: "mixed_ai", Subject: "Boston Celtics", TeamCode: &bos,
		Category: models.CategorySpread, Side: models.SideCover,
		Line: -3.5, Price: -110, Stake: 1,
		EventTime: time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC),
	}
	require.NoError(t, store.Create(ctx, spread))

	obs := 31.0
	_, err = store.Settle(ctx, "p1", models.Settlement{
		Status: models.StatusWon, ObservedValue: &obs, ProfitLoss: 0.91, SettledBy: "reconciler",
	})
	require.NoError(t, err)
	margin := 8.0
	_, err = store.Settle(ctx, "s1", models.Settlement{
		Status: models.StatusLost, ObservedValue: &margin, ProfitLoss: -1, SettledBy: "reconciler",
	})
	require.NoError(t, err)

	summaries, err := SummarizeByCategory(ctx, store, "mixed_ai")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, models.CategoryPlayerProp, summaries[0].Category)
	assert.Equal(t, models.CategorySpread, summaries[1].Category)
	assert.Equal(t, 1, summaries[0].Wins)
	assert.Equal(t, 1, summaries[1].Losses)
}
