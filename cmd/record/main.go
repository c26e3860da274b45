// Command record appends a new pending pick to the tracking store.
//
//	record -model props_ai -subject "Jalen O'Brien Jr." -team BOS \
//	       -category player_prop -side over -stat points -line 24.5 \
//	       -price -115 -stake 1 -event 2026-03-01T19:30:00-05:00
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"picktrack/tracking/internal/config"
	"picktrack/tracking/internal/jsonstore"
	"picktrack/tracking/internal/models"
	"picktrack/tracking/internal/pickstore"
	"picktrack/tracking/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		model    = flag.String("model", "", "model name (required)")
		subject  = flag.String("subject", "", "player or team (required)")
		team     = flag.String("team", "", "team code")
		opponent = flag.String("opponent", "", "opponent team code")
		category = flag.String("category", "", "spread, total, or player_prop (required)")
		side     = flag.String("side", "", "over, under, or cover (required)")
		stat     = flag.String("stat", "", "stat type for player props, e.g. points")
		line     = flag.Float64("line", 0, "the line")
		price    = flag.Int("price", 0, "American odds, e.g. -110 (required)")
		closing  = flag.Int("closing", 0, "closing American odds, for CLV")
		stake    = flag.Float64("stake", 1, "stake in units")
		event    = flag.String("event", "", "scheduled start, RFC3339 (required)")
	)
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	eventTime, err := time.Parse(time.RFC3339, *event)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -event: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	input := models.PickInput{
		Model:     *model,
		Subject:   *subject,
		TeamCode:  *team,
		Opponent:  *opponent,
		Category:  *category,
		Side:      *side,
		StatType:  *stat,
		Line:      *line,
		Price:     *price,
		Stake:     *stake,
		EventTime: eventTime,
	}
	if *closing != 0 {
		c := *closing
		input.ClosingPrice = &c
	}

	pick := input.ToPick(uuid.NewString())

	ctx := context.Background()
	cfg := config.MustLoad()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	if err := store.Create(ctx, pick); err != nil {
		log.Fatal().Err(err).Msg("Failed to record pick")
	}

	fmt.Printf("recorded %s: %s %s %s %.1f @ %+d\n",
		pick.ID, pick.Subject, pick.Category, pick.Side, pick.Line, pick.Price)
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
