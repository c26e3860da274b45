package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"picktrack/tracking/internal/models"
	"picktrack/tracking/internal/pickstore"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// PickRepository handles pick database operations
type PickRepository struct {
	db *Database
}

const pickColumns = `
	id, model, subject, team_code, opponent, category, side, stat_type,
	line, price, closing_price, stake, event_time, status,
	observed_value, profit_loss, graded_at, settled_by, created_at, updated_at
`

// Create inserts a new pending pick
func (r *PickRepository) Create(ctx context.Context, pick *models.Pick) error {
	if err := pick.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO picks (
			id, model, subject, team_code, opponent, category, side, stat_type,
			line, price, closing_price, stake, event_time, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		pick.ID, pick.Model, pick.Subject, pick.TeamCode, pick.Opponent,
		pick.Category, pick.Side, pick.StatType,
		pick.Line, pick.Price, pick.ClosingPrice, pick.Stake,
		pick.EventTime, models.StatusPending,
	).Scan(&pick.CreatedAt, &pick.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("pick %s: %w", pick.ID, pickstore.ErrDuplicate)
		}
		return fmt.Errorf("failed to create pick: %w", err)
	}

	pick.Status = models.StatusPending

	log.Debug().
		Str("id", pick.ID).
		Str("model", pick.Model).
		Str("subject", pick.Subject).
		Str("category", pick.Category).
		Msg("Pick created")

	return nil
}

// GetByID retrieves a pick by its id
func (r *PickRepository) GetByID(ctx context.Context, id string) (*models.Pick, error) {
	query := `SELECT` + pickColumns + `FROM picks WHERE id = $1`

	pick, err := scanPick(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("pick %s: %w", id, pickstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pick: %w", err)
	}

	return pick, nil
}

// ListPending retrieves pending picks whose event time is before the cutoff
func (r *PickRepository) ListPending(ctx context.Context, before time.Time) ([]*models.Pick, error) {
	query := `
		SELECT` + pickColumns + `
		FROM picks
		WHERE status = $1 AND event_time < $2
		ORDER BY event_time
	`

	picks, err := r.queryPicks(ctx, query, models.StatusPending, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending picks: %w", err)
	}

	log.Debug().Int("count", len(picks)).Msg("Retrieved pending picks")
	return picks, nil
}

// ListByModel retrieves all picks recorded by one model
func (r *PickRepository) ListByModel(ctx context.Context, model string) ([]*models.Pick, error) {
	query := `
		SELECT` + pickColumns + `
		FROM picks
		WHERE model = $1
		ORDER BY event_time
	`

	picks, err := r.queryPicks(ctx, query, model)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks by model: %w", err)
	}

	return picks, nil
}

// ListTerminal retrieves all settled picks
func (r *PickRepository) ListTerminal(ctx context.Context) ([]*models.Pick, error) {
	query := `
		SELECT` + pickColumns + `
		FROM picks
		WHERE status <> $1
		ORDER BY event_time
	`

	picks, err := r.queryPicks(ctx, query, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list terminal picks: %w", err)
	}

	return picks, nil
}

// Settle applies a settlement to a pending pick.
// The WHERE guard makes re-running reconciliation a no-op on anything
// already terminal.
func (r *PickRepository) Settle(ctx context.Context, id string, s models.Settlement) (bool, error) {
	if !models.TerminalStatus(s.Status) {
		return false, fmt.Errorf("settlement status %q is not terminal", s.Status)
	}

	query := `
		UPDATE picks
		SET status = $2, observed_value = $3, profit_loss = $4,
		    graded_at = NOW(), settled_by = $5, updated_at = NOW()
		WHERE id = $1 AND status = $6
	`

	result, err := r.db.Pool.Exec(ctx, query,
		id, s.Status, s.ObservedValue, s.ProfitLoss, s.SettledBy, models.StatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to settle pick: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish missing picks from already-settled ones
		pick, err := r.GetByID(ctx, id)
		if err != nil {
			return false, err
		}
		log.Debug().
			Str("id", id).
			Str("status", pick.Status).
			Msg("Pick already settled, skipping")
		return false, nil
	}

	log.Debug().
		Str("id", id).
		Str("status", s.Status).
		Float64("profit_loss", s.ProfitLoss).
		Msg("Pick settled")

	return true, nil
}

// Correct overwrites a pick's settlement regardless of its current state.
// This is the manual-correction path; passing a pending status re-opens
// the pick and clears its settlement fields.
func (r *PickRepository) Correct(ctx context.Context, id string, s models.Settlement) error {
	var query string
	var args []interface{}

	if s.Status == models.StatusPending {
		query = `
			UPDATE picks
			SET status = $2, observed_value = NULL, profit_loss = NULL,
			    graded_at = NULL, settled_by = $3, updated_at = NOW()
			WHERE id = $1
		`
		args = []interface{}{id, models.StatusPending, s.SettledBy}
	} else if models.TerminalStatus(s.Status) {
		query = `
			UPDATE picks
			SET status = $2, observed_value = $3, profit_loss = $4,
			    graded_at = NOW(), settled_by = $5, updated_at = NOW()
			WHERE id = $1
		`
		args = []interface{}{id, s.Status, s.ObservedValue, s.ProfitLoss, s.SettledBy}
	} else {
		return fmt.Errorf("invalid correction status %q", s.Status)
	}

	result, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to correct pick: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pick %s: %w", id, pickstore.ErrNotFound)
	}

	log.Info().
		Str("id", id).
		Str("status", s.Status).
		Str("settled_by", s.SettledBy).
		Msg("Pick corrected")

	return nil
}

// CountByStatus returns pick counts grouped by status
func (r *PickRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM picks GROUP BY status`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count picks: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan pick count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pick counts: %w", err)
	}

	return counts, nil
}

// Close satisfies pickstore.Store; the pool is owned by Database
func (r *PickRepository) Close() {}

func (r *PickRepository) queryPicks(ctx context.Context, query string, args ...interface{}) ([]*models.Pick, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var picks []*models.Pick
	for rows.Next() {
		pick, err := scanPick(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, pick)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return picks, nil
}

func scanPick(row pgx.Row) (*models.Pick, error) {
	var pick models.Pick
	err := row.Scan(
		&pick.ID, &pick.Model, &pick.Subject, &pick.TeamCode, &pick.Opponent,
		&pick.Category, &pick.Side, &pick.StatType,
		&pick.Line, &pick.Price, &pick.ClosingPrice, &pick.Stake,
		&pick.EventTime, &pick.Status,
		&pick.ObservedValue, &pick.ProfitLoss, &pick.GradedAt, &pick.SettledBy,
		&pick.CreatedAt, &pick.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pick, nil
}
