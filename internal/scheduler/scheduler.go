// Package scheduler drives the periodic reconciliation pass and the
// nightly stats/dashboard refresh.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"picktrack/tracking/internal/config"
	"picktrack/tracking/internal/pickstore"
	"picktrack/tracking/internal/reconcile"
	"picktrack/tracking/internal/report"
)

// Scheduler manages background jobs:
// - reconcile pending picks on an interval
// - refresh stats and re-render the dashboard nightly
type Scheduler struct {
	cfg        *config.Config
	store      pickstore.Store
	reconciler *reconcile.Reconciler
	cron       *cron.Cron
	ticker     *time.Ticker
	stopChan   chan struct{}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, store pickstore.Store, reconciler *reconcile.Reconciler) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		store:      store,
		reconciler: reconciler,
		cron:       cron.New(),
		stopChan:   make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if s.cfg.EnableDashboard {
		if _, err := s.cron.AddFunc(s.cfg.StatsRefreshCron, func() {
			log.Info().Msg("Running nightly stats refresh...")
			if err := report.Render(ctx, s.store, s.cfg.DashboardPath); err != nil {
				log.Error().Err(err).Msg("Nightly stats refresh failed")
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule stats refresh: %w", err)
		}

		s.cron.Start()
		log.Info().
			Str("schedule", s.cfg.StatsRefreshCron).
			Msg("Nightly stats refresh scheduled")
	}

	s.ticker = time.NewTicker(s.cfg.ReconcileInterval)
	log.Info().
		Dur("interval", s.cfg.ReconcileInterval).
		Msg("Reconciliation polling started")

	go s.pollReconcile(ctx)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	if s.ticker != nil {
		s.ticker.Stop()
	}

	close(s.stopChan)
	log.Info().Msg("Scheduler stopped")
}

// pollReconcile runs reconciliation on every tick until stopped
func (s *Scheduler) pollReconcile(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping reconciliation polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping reconciliation polling")
			return
		case <-s.ticker.C:
			if _, err := s.reconciler.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Reconciliation run failed")
			}
		}
	}
}
