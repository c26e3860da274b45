package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picktrack/tracking/internal/models"
)

func TestClassify_OverUnder(t *testing.T) {
	tests := []struct {
		name     string
		category string
		side     string
		line     float64
		observed float64
		want     string
	}{
		{"prop over clears", models.CategoryPlayerProp, models.SideOver, 24.5, 31, models.StatusWon},
		{"prop over misses", models.CategoryPlayerProp, models.SideOver, 24.5, 18, models.StatusLost},
		{"prop under clears", models.CategoryPlayerProp, models.SideUnder, 24.5, 18, models.StatusWon},
		{"prop under misses", models.CategoryPlayerProp, models.SideUnder, 24.5, 31, models.StatusLost},
		{"whole number lands exactly: push", models.CategoryPlayerProp, models.SideOver, 25, 25, models.StatusPush},
		{"under on the number is also a push", models.CategoryPlayerProp, models.SideUnder, 25, 25, models.StatusPush},
		{"total over", models.CategoryTotal, models.SideOver, 221.5, 230, models.StatusWon},
		{"total under", models.CategoryTotal, models.SideUnder, 221.5, 230, models.StatusLost},
		{"total on the number", models.CategoryTotal, models.SideOver, 220, 220, models.StatusPush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.category, tt.side, tt.line, tt.observed)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_Spread(t *testing.T) {
	tests := []struct {
		name     string
		line     float64
		margin   float64
		want     string
	}{
		{"favorite covers", -3.5, 7, models.StatusWon},
		{"favorite wins but fails to cover", -3.5, 2, models.StatusLost},
		{"favorite loses outright", -3.5, -4, models.StatusLost},
		{"dog covers by losing small", 6.5, -3, models.StatusWon},
		{"dog blown out", 6.5, -12, models.StatusLost},
		{"lands exactly on the number", -3, 3, models.StatusPush},
		{"pickem win", 0, 1, models.StatusWon},
		{"pickem tie would push", 0, 0, models.StatusPush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(models.CategorySpread, models.SideCover, tt.line, tt.margin)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_Invalid(t *testing.T) {
	_, err := Classify("parlay", models.SideOver, 1, 2)
	assert.Error(t, err)

	_, err = Classify(models.CategoryTotal, "sideways", 1, 2)
	assert.Error(t, err)
}

func TestProfitLoss(t *testing.T) {
	pl, err := ProfitLoss(models.StatusWon, -110, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.9091, pl, 0.001)

	pl, err = ProfitLoss(models.StatusWon, 150, 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, pl, 0.0001)

	pl, err = ProfitLoss(models.StatusLost, -110, 1.5)
	require.NoError(t, err)
	assert.Equal(t, -1.5, pl)

	pl, err = ProfitLoss(models.StatusPush, -110, 1)
	require.NoError(t, err)
	assert.Zero(t, pl)

	pl, err = ProfitLoss(models.StatusVoid, 150, 1)
	require.NoError(t, err)
	assert.Zero(t, pl)

	_, err = ProfitLoss(models.StatusPending, -110, 1)
	assert.Error(t, err, "profit/loss is undefined while pending")
}

func TestImpliedProbability(t *testing.T) {
	assert.InDelta(t, 0.6, ImpliedProbability(-150), 0.0001)
	assert.InDelta(t, 0.4, ImpliedProbability(150), 0.0001)
	assert.InDelta(t, 0.5238, ImpliedProbability(-110), 0.001)
	assert.Zero(t, ImpliedProbability(0))
}

func TestCLV(t *testing.T) {
	// took -110, closed -130: we beat the close
	assert.Greater(t, CLV(-110, -130), 0.0)
	// took -130, closed -110: market moved against us
	assert.Less(t, CLV(-130, -110), 0.0)
	assert.Zero(t, CLV(-110, -110))
}
