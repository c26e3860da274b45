// Package pickstore defines the tracking-store contract shared by the
// Postgres and flat-file backends.
package pickstore

import (
	"context"
	"errors"
	"time"

	"picktrack/tracking/internal/models"
)

var (
	// ErrNotFound is returned when no pick exists with the given id
	ErrNotFound = errors.New("pick not found")
	// ErrDuplicate is returned when a pick id already exists in the store
	ErrDuplicate = errors.New("pick id already exists")
)

// Store is a tracking store for pick records.
//
// Settle applies a terminal settlement to a pending pick and reports
// whether it was applied; settling an already-terminal pick is a no-op
// returning false, which keeps reconciliation idempotent. Correct is the
// manual-correction path and is the only operation allowed to overwrite
// or re-open a terminal pick.
type Store interface {
	Create(ctx context.Context, pick *models.Pick) error
	GetByID(ctx context.Context, id string) (*models.Pick, error)

	// ListPending returns pending picks whose event time is strictly
	// before the given cutoff
	ListPending(ctx context.Context, before time.Time) ([]*models.Pick, error)
	ListByModel(ctx context.Context, model string) ([]*models.Pick, error)
	ListTerminal(ctx context.Context) ([]*models.Pick, error)

	Settle(ctx context.Context, id string, s models.Settlement) (bool, error)
	Correct(ctx context.Context, id string, s models.Settlement) error

	CountByStatus(ctx context.Context) (map[string]int, error)
	Close()
}
