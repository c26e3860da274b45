package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"picktrack/tracking/internal/cache"
	"picktrack/tracking/internal/config"
	"picktrack/tracking/internal/jsonstore"
	"picktrack/tracking/internal/metrics"
	"picktrack/tracking/internal/pickstore"
	"picktrack/tracking/internal/reconcile"
	"picktrack/tracking/internal/repository"
	"picktrack/tracking/internal/results"
	"picktrack/tracking/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogger()

	log.Info().Msg("Starting pick tracking worker")

	cfg := config.MustLoad()
	if err := cfg.ValidateResults(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().
		Str("env", cfg.AppEnv).
		Str("store", cfg.StoreBackend).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	client := results.NewClient(cfg.ResultsBaseURL, cfg.ResultsAPIKey, cfg.ResultsTimeout, cfg.Location())
	log.Info().Str("base_url", cfg.ResultsBaseURL).Msg("Results client initialized")

	// Redis is best-effort: reconcile without the cache if it is down
	var redisCache *cache.RedisCache
	rc, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     strconv.Itoa(cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
	} else {
		redisCache = rc
		defer redisCache.Close()
		log.Info().Msg("Redis cache connected")
	}

	source := results.NewCached(
		client,
		redisCache,
		time.Duration(cfg.CacheTTLStatLines)*time.Second,
		time.Duration(cfg.CacheTTLFinals)*time.Second,
	)

	reconciler := reconcile.New(store, source, reconcile.Config{
		SettleBuffer: cfg.SettleBuffer,
		VoidBuffer:   cfg.VoidBuffer,
		Location:     cfg.Location(),
	})

	if cfg.EnableMetrics {
		go startMetricsServer(strconv.Itoa(cfg.MetricsPort))
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	sched := scheduler.NewScheduler(cfg, store, reconciler)

	if cfg.EnableScheduler {
		log.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	if cfg.ReconcileOnBoot {
		log.Info().Msg("Running initial reconciliation pass...")
		if _, err := reconciler.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Initial reconciliation failed, continuing anyway...")
		} else {
			log.Info().Msg("Initial reconciliation completed")
		}
	}

	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// openStore selects the tracking store backend and returns it together
// with its shutdown hook
func openStore(ctx context.Context, cfg *config.Config) (pickstore.Store, func()) {
	switch cfg.StoreBackend {
	case "json":
		store, err := jsonstore.Open(cfg.JSONStoreDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.JSONStoreDir).Msg("Failed to open tracking directory")
		}
		return store, store.Close

	default:
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
		log.Info().Msg("Database connection established")
		return db.Picks, db.Close
	}
}

// setupLogger configures the zerolog logger
func setupLogger() {
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port string) {
	http.Handle("/metrics", promhttp.Handler())

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
