// Package stats aggregates terminal picks into per-model performance
// summaries.
package stats

import (
	"context"
	"fmt"
	"sort"

	"picktrack/tracking/internal/grading"
	"picktrack/tracking/internal/models"
	"picktrack/tracking/internal/pickstore"
)

// Summarize aggregates all terminal picks grouped per model, with an
// "overall" rollup in front
func Summarize(ctx context.Context, store pickstore.Store) ([]models.ModelSummary, error) {
	picks, err := store.ListTerminal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list terminal picks: %w", err)
	}

	byModel := make(map[string][]*models.Pick)
	for _, p := range picks {
		byModel[p.Model] = append(byModel[p.Model], p)
	}

	summaries := make([]models.ModelSummary, 0, len(byModel)+1)
	summaries = append(summaries, Aggregate("overall", "", picks))

	names := make([]string, 0, len(byModel))
	for name := range byModel {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		summaries = append(summaries, Aggregate(name, "", byModel[name]))
	}

	return summaries, nil
}

// SummarizeByCategory aggregates one model's terminal picks per category
func SummarizeByCategory(ctx context.Context, store pickstore.Store, model string) ([]models.ModelSummary, error) {
	picks, err := store.ListByModel(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks for %s: %w", model, err)
	}

	byCategory := make(map[string][]*models.Pick)
	for _, p := range picks {
		if !p.Terminal() {
			continue
		}
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	summaries := make([]models.ModelSummary, 0, len(byCategory))
	for _, c := range categories {
		summaries = append(summaries, Aggregate(model, c, byCategory[c]))
	}

	return summaries, nil
}

// Aggregate folds terminal picks into a single summary row.
// Pending picks are ignored; pushes and voids stay out of the win rate
// and stake totals.
func Aggregate(model, category string, picks []*models.Pick) models.ModelSummary {
	s := models.ModelSummary{Model: model, Category: category}

	var clvSum float64

	for _, p := range picks {
		switch p.Status {
		case models.StatusWon:
			s.Wins++
		case models.StatusLost:
			s.Losses++
		case models.StatusPush:
			s.Pushes++
			continue
		case models.StatusVoid:
			s.Voids++
			continue
		default:
			continue
		}

		s.UnitsStaked += p.Stake
		if p.ProfitLoss != nil {
			s.UnitsReturned += *p.ProfitLoss
		}

		if p.ClosingPrice != nil {
			clvSum += grading.CLV(p.Price, *p.ClosingPrice)
			s.CLVSamples++
		}
	}

	if graded := s.Graded(); graded > 0 {
		s.WinRate = float64(s.Wins) / float64(graded)
	}
	if s.UnitsStaked > 0 {
		s.ROI = s.UnitsReturned / s.UnitsStaked
	}
	if s.CLVSamples > 0 {
		s.AvgCLV = clvSum / float64(s.CLVSamples)
	}

	return s
}
