// Command grade is the manual correction tool. It is the only path that
// may overwrite or re-open a settled pick.
//
//	grade -id <pick-id> -status won -observed 31.0
//	grade -id <pick-id> -status pending        # re-open
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"picktrack/tracking/internal/config"
	"picktrack/tracking/internal/grading"
	"picktrack/tracking/internal/jsonstore"
	"picktrack/tracking/internal/models"
	"picktrack/tracking/internal/pickstore"
	"picktrack/tracking/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		id       = flag.String("id", "", "pick id to correct (required)")
		status   = flag.String("status", "", "new status: won, lost, push, void, or pending to re-open (required)")
		observed = flag.Float64("observed", 0, "observed statistic (required for won/lost/push)")
		profit   = flag.Float64("profit", 0, "override profit/loss; computed from the recorded price when omitted")
		by       = flag.String("by", "manual", "recorded as the settling actor")
	)
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if *id == "" || *status == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := config.MustLoad()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	pick, err := store.GetByID(ctx, *id)
	if err != nil {
		log.Fatal().Err(err).Str("id", *id).Msg("Failed to load pick")
	}

	settlement := models.Settlement{
		Status:    *status,
		SettledBy: *by,
	}

	switch {
	case *status == models.StatusPending:
		// re-open; settlement fields are cleared by the store

	case models.TerminalStatus(*status):
		if *status != models.StatusVoid {
			if !flagPassed("observed") {
				log.Fatal().Msg("-observed is required for won/lost/push corrections")
			}
			obs := *observed
			settlement.ObservedValue = &obs
		}

		pl := *profit
		if !flagPassed("profit") {
			pl, err = grading.ProfitLoss(*status, pick.Price, pick.Stake)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to compute profit/loss")
			}
		}
		settlement.ProfitLoss = pl

	default:
		log.Fatal().Str("status", *status).Msg("Unknown status")
	}

	if err := store.Correct(ctx, *id, settlement); err != nil {
		log.Fatal().Err(err).Str("id", *id).Msg("Correction failed")
	}

	updated, err := store.GetByID(ctx, *id)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to reload pick")
	}

	fmt.Printf("pick %s: %s -> %s", updated.ID, pick.Status, updated.Status)
	if updated.ProfitLoss != nil {
		fmt.Printf(" (%.2fu)", *updated.ProfitLoss)
	}
	fmt.Println()
}

func openStore(ctx context.Context, cfg *config.Config) (pickstore.Store, func()) {
	if cfg.StoreBackend == "json" {
		store, err := jsonstore.Open(cfg.JSONStoreDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.JSONStoreDir).Msg("Failed to open tracking directory")
		}
		return store, store.Close
	}

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	return db.Picks, db.Close
}

func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}
