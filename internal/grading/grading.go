// Package grading classifies settled picks against observed results and
// computes profit/loss from the recorded American price.
package grading

import (
	"fmt"
	"math"

	"picktrack/tracking/internal/models"
)

// Classify grades an observed statistic against a pick's line.
//
// Over/under (totals and player props): strict inequality wins, exact
// equality is a push. Spreads: the picked team covers when margin + line
// is positive, pushes when it lands exactly on the number.
func Classify(category, side string, line, observed float64) (string, error) {
	switch category {
	case models.CategoryTotal, models.CategoryPlayerProp:
		switch side {
		case models.SideOver:
			return compare(observed, line), nil
		case models.SideUnder:
			return compare(line, observed), nil
		}
		return "", fmt.Errorf("invalid side %q for %s pick", side, category)

	case models.CategorySpread:
		// line is quoted for the picked team, e.g. -3.5 means it must
		// win by 4 or more
		return compare(observed+line, 0), nil
	}

	return "", fmt.Errorf("unknown bet category %q", category)
}

func compare(a, b float64) string {
	switch {
	case a > b:
		return models.StatusWon
	case a < b:
		return models.StatusLost
	}
	return models.StatusPush
}

// ProfitLoss converts a terminal status into wager units.
// Wins pay at the recorded American price, losses forfeit the stake, and
// pushes/voids return it.
func ProfitLoss(status string, price int, stake float64) (float64, error) {
	switch status {
	case models.StatusWon:
		return stake * payoutMultiple(price), nil
	case models.StatusLost:
		return -stake, nil
	case models.StatusPush, models.StatusVoid:
		return 0, nil
	}
	return 0, fmt.Errorf("profit/loss undefined for status %q", status)
}

// payoutMultiple returns profit per unit staked for winning American odds
func payoutMultiple(price int) float64 {
	if price > 0 {
		return float64(price) / 100.0
	}
	return 100.0 / math.Abs(float64(price))
}

// ImpliedProbability converts American odds to an implied win probability.
// -150 -> 0.6, +150 -> 0.4.
func ImpliedProbability(price int) float64 {
	if price == 0 {
		return 0
	}
	if price > 0 {
		return 100.0 / (float64(price) + 100.0)
	}
	abs := math.Abs(float64(price))
	return abs / (abs + 100.0)
}

// CLV measures closing line value in implied-probability points: positive
// when the taken price beat the close
func CLV(takenPrice, closingPrice int) float64 {
	return ImpliedProbability(closingPrice) - ImpliedProbability(takenPrice)
}
