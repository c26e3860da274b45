// Package reconcile converges pending picks against the external results
// source. Runs are idempotent: terminal picks are never touched, and a
// pick that finds no result inside the void window is voided rather than
// left pending forever.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"picktrack/tracking/internal/grading"
	"picktrack/tracking/internal/metrics"
	"picktrack/tracking/internal/models"
	"picktrack/tracking/internal/normalize"
	"picktrack/tracking/internal/pickstore"
)

// SettledByReconciler marks settlements written by the automatic job
const SettledByReconciler = "reconciler"

// Source supplies observed results for a calendar date
type Source interface {
	PlayerLines(ctx context.Context, date time.Time) ([]models.PlayerLine, error)
	TeamResults(ctx context.Context, date time.Time) ([]models.TeamResult, error)
}

// Config controls the reconciliation windows
type Config struct {
	// SettleBuffer is the minimum age past the scheduled start before a
	// pick is examined
	SettleBuffer time.Duration
	// VoidBuffer is the age past the scheduled start at which an
	// unmatched pick is voided
	VoidBuffer time.Duration
	// Location is the reference timezone for calendar-day matching
	Location *time.Location
	// Now overrides the clock in tests
	Now func() time.Time
}

// Report summarizes one reconciliation run
type Report struct {
	Examined     int
	Graded       int
	Voided       int
	StillPending int
	Skipped      int
	Errors       int
	Outcomes     map[string]int
}

// Reconciler grades pending picks against a results source
type Reconciler struct {
	store  pickstore.Store
	source Source
	cfg    Config
}

// New creates a reconciler
func New(store pickstore.Store, source Source, cfg Config) *Reconciler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Reconciler{store: store, source: source, cfg: cfg}
}

// Run executes one reconciliation pass
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	now := r.cfg.Now()

	report := &Report{Outcomes: make(map[string]int)}

	cutoff := now.Add(-r.cfg.SettleBuffer)
	pending, err := r.store.ListPending(ctx, cutoff)
	if err != nil {
		metrics.RecordReconcileRun("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to list pending picks: %w", err)
	}

	log.Info().
		Int("count", len(pending)).
		Time("cutoff", cutoff).
		Msg("Reconciliation run started")

	// Results are fetched once per calendar date and reused across picks
	fetched := newDayFetcher(r.source, r.cfg.Location)

	for _, pick := range pending {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		report.Examined++

		if err := r.reconcilePick(ctx, now, pick, fetched, report); err != nil {
			report.Errors++
			metrics.RecordError("reconcile", "pick")
			log.Error().Err(err).
				Str("id", pick.ID).
				Str("subject", pick.Subject).
				Msg("Failed to reconcile pick")
		}
	}

	r.updatePendingGauge(ctx)

	status := "success"
	if report.Errors > 0 {
		status = "partial"
	}
	metrics.RecordReconcileRun(status, time.Since(start).Seconds())

	log.Info().
		Int("examined", report.Examined).
		Int("graded", report.Graded).
		Int("voided", report.Voided).
		Int("still_pending", report.StillPending).
		Int("errors", report.Errors).
		Dur("duration", time.Since(start)).
		Msg("Reconciliation run complete")

	return report, nil
}

func (r *Reconciler) reconcilePick(ctx context.Context, now time.Time, pick *models.Pick, fetched *dayFetcher, report *Report) error {
	observed, matched, err := r.observe(ctx, pick, fetched)
	if err != nil {
		// Fetch failure: leave the pick pending for the next run
		report.StillPending++
		return err
	}

	if !matched {
		metrics.RecordMatchFailure()

		if now.Sub(pick.EventTime) >= r.cfg.VoidBuffer {
			// Fail-safe: no result inside the window, do not leave the
			// pick pending indefinitely
			applied, err := r.store.Settle(ctx, pick.ID, models.Settlement{
				Status:     models.StatusVoid,
				ProfitLoss: 0,
				SettledBy:  SettledByReconciler,
			})
			if err != nil {
				return fmt.Errorf("failed to void pick: %w", err)
			}
			if applied {
				report.Voided++
				metrics.RecordVoid()
				log.Warn().
					Str("id", pick.ID).
					Str("subject", pick.Subject).
					Time("event_time", pick.EventTime).
					Msg("Pick voided: no result found inside the void window")
			} else {
				report.Skipped++
			}
			return nil
		}

		report.StillPending++
		log.Debug().
			Str("id", pick.ID).
			Str("subject", pick.Subject).
			Msg("No result row yet, leaving pick pending")
		return nil
	}

	status, err := grading.Classify(pick.Category, pick.Side, pick.Line, observed)
	if err != nil {
		return err
	}

	profitLoss, err := grading.ProfitLoss(status, pick.Price, pick.Stake)
	if err != nil {
		return err
	}

	obs := observed
	applied, err := r.store.Settle(ctx, pick.ID, models.Settlement{
		Status:        status,
		ObservedValue: &obs,
		ProfitLoss:    profitLoss,
		SettledBy:     SettledByReconciler,
	})
	if err != nil {
		return fmt.Errorf("failed to settle pick: %w", err)
	}

	if !applied {
		report.Skipped++
		return nil
	}

	report.Graded++
	report.Outcomes[status]++
	metrics.RecordGrade(status)

	log.Info().
		Str("id", pick.ID).
		Str("subject", pick.Subject).
		Str("category", pick.Category).
		Float64("line", pick.Line).
		Float64("observed", observed).
		Str("status", status).
		Float64("profit_loss", profitLoss).
		Msg("Pick graded")

	return nil
}

// observe looks up the observed statistic for a pick. The bool reports
// whether a usable result row was found.
func (r *Reconciler) observe(ctx context.Context, pick *models.Pick, fetched *dayFetcher) (float64, bool, error) {
	switch pick.Category {
	case models.CategoryPlayerProp:
		lines, err := fetched.playerLines(ctx, pick.EventTime)
		if err != nil {
			return 0, false, err
		}
		return r.matchPlayerLine(pick, lines)

	case models.CategorySpread, models.CategoryTotal:
		results, err := fetched.teamResults(ctx, pick.EventTime)
		if err != nil {
			return 0, false, err
		}
		return r.matchTeamResult(pick, results)
	}

	return 0, false, fmt.Errorf("unknown bet category %q", pick.Category)
}

// matchPlayerLine matches a prop pick to a final stat line by normalized
// name + calendar day, with team code as a tiebreaker when both sides
// carry one. Ambiguous matches are treated as unmatched.
func (r *Reconciler) matchPlayerLine(pick *models.Pick, lines []models.PlayerLine) (float64, bool, error) {
	var candidates []models.PlayerLine
	for _, line := range lines {
		if !line.Final {
			continue
		}
		if !normalize.SameDay(line.EventDate, pick.EventTime, r.cfg.Location) {
			continue
		}
		if !normalize.SameName(pick.Subject, line.PlayerName) {
			continue
		}
		if pick.TeamCode != nil && line.TeamCode != "" && !normalize.SameTeam(*pick.TeamCode, line.TeamCode) {
			continue
		}
		candidates = append(candidates, line)
	}

	if len(candidates) > 1 {
		// Prefer an exact normalized full-name match over an
		// initial+last-name one
		var exact []models.PlayerLine
		want := normalize.Name(pick.Subject)
		for _, c := range candidates {
			if normalize.Name(c.PlayerName) == want {
				exact = append(exact, c)
			}
		}
		if len(exact) == 1 {
			candidates = exact
		}
	}

	if len(candidates) != 1 {
		if len(candidates) > 1 {
			log.Warn().
				Str("id", pick.ID).
				Str("subject", pick.Subject).
				Int("candidates", len(candidates)).
				Msg("Ambiguous player match, treating as unmatched")
		}
		return 0, false, nil
	}

	value, ok := candidates[0].Stats[pick.StatType]
	if !ok {
		log.Warn().
			Str("id", pick.ID).
			Str("stat_type", pick.StatType).
			Msg("Matched stat line is missing the picked stat")
		return 0, false, nil
	}

	return value, true, nil
}

// matchTeamResult matches a spread or total pick to its team's final
func (r *Reconciler) matchTeamResult(pick *models.Pick, results []models.TeamResult) (float64, bool, error) {
	team := pick.Subject
	if pick.TeamCode != nil {
		team = *pick.TeamCode
	}

	for _, res := range results {
		if !res.Final {
			continue
		}
		if !normalize.SameDay(res.EventDate, pick.EventTime, r.cfg.Location) {
			continue
		}
		if !normalize.SameTeam(team, res.TeamCode) && !normalize.SameTeam(team, res.TeamName) {
			continue
		}
		if pick.Opponent != nil && res.Opponent != "" && !normalize.SameTeam(*pick.Opponent, res.Opponent) {
			continue
		}

		switch pick.Category {
		case models.CategorySpread:
			return res.Margin(), true, nil
		case models.CategoryTotal:
			return res.Total(), true, nil
		}
	}

	return 0, false, nil
}

func (r *Reconciler) updatePendingGauge(ctx context.Context) {
	counts, err := r.store.CountByStatus(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to refresh pending gauge")
		return
	}
	metrics.PendingPicks.Set(float64(counts[models.StatusPending]))
}

// dayFetcher memoizes per-date results so a run fetches each date once.
// Fetch errors are memoized too; the affected picks stay pending and the
// next run retries.
type dayFetcher struct {
	source Source
	loc    *time.Location

	lines      map[string][]models.PlayerLine
	lineErrs   map[string]error
	finals     map[string][]models.TeamResult
	finalsErrs map[string]error
}

func newDayFetcher(source Source, loc *time.Location) *dayFetcher {
	return &dayFetcher{
		source:     source,
		loc:        loc,
		lines:      make(map[string][]models.PlayerLine),
		lineErrs:   make(map[string]error),
		finals:     make(map[string][]models.TeamResult),
		finalsErrs: make(map[string]error),
	}
}

func (f *dayFetcher) dayKey(t time.Time) (string, time.Time) {
	local := t.In(f.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, f.loc)
	return day.Format("2006-01-02"), day
}

func (f *dayFetcher) playerLines(ctx context.Context, eventTime time.Time) ([]models.PlayerLine, error) {
	key, day := f.dayKey(eventTime)
	if lines, ok := f.lines[key]; ok {
		return lines, nil
	}
	if err, ok := f.lineErrs[key]; ok {
		return nil, err
	}

	lines, err := f.source.PlayerLines(ctx, day)
	if err != nil {
		f.lineErrs[key] = err
		return nil, err
	}
	f.lines[key] = lines
	return lines, nil
}

func (f *dayFetcher) teamResults(ctx context.Context, eventTime time.Time) ([]models.TeamResult, error) {
	key, day := f.dayKey(eventTime)
	if results, ok := f.finals[key]; ok {
		return results, nil
	}
	if err, ok := f.finalsErrs[key]; ok {
		return nil, err
	}

	results, err := f.source.TeamResults(ctx, day)
	if err != nil {
		f.finalsErrs[key] = err
		return nil, err
	}
	f.finals[key] = results
	return results, nil
}
