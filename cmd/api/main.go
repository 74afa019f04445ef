// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"trendscope/internal/adapter/storage"
	"trendscope/internal/config"
	"trendscope/internal/domain/trend"
	"trendscope/internal/server"
	"trendscope/internal/service/analysis"
	"trendscope/internal/service/ingest"
	"trendscope/internal/service/report"
)

func main() {
	// Load optional .env before reading configuration
	godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize the trend store
	var store trend.Store
	switch cfg.Store.Backend {
	case "postgres":
		db, err := initDatabase(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()

		observationStore := storage.NewObservationStore(db)
		if err := observationStore.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure schema")
		}
		store = observationStore
	case "memory":
		log.Warn().Msg("Using in-memory store; observations will not survive restarts")
		store = storage.NewMemoryStore()
	}

	natsConn, err := initNATS(cfg.NATS, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	// Initialize the analysis components; invalid thresholds fail fast
	// before any analysis runs.
	classifier, err := analysis.NewClassifier(analysis.ClassifierConfig{
		WindowDays:         cfg.Classifier.WindowDays,
		WindowSize:         cfg.Classifier.WindowSize,
		MinObservations:    cfg.Classifier.MinObservations,
		BreakoutThreshold:  cfg.Classifier.BreakoutThreshold,
		RisingThreshold:    cfg.Classifier.RisingThreshold,
		DecliningThreshold: cfg.Classifier.DecliningThreshold,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid classifier configuration")
	}

	patterns := analysis.DefaultPatterns()
	if cfg.Seasonal.PatternsPath != "" {
		patterns, err = analysis.LoadPatterns(cfg.Seasonal.PatternsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load seasonal pattern library")
		}
	}

	matcher, err := analysis.NewMatcher(patterns, analysis.MatcherConfig{
		MinConfidence: cfg.Seasonal.MinConfidence,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid seasonal configuration")
	}

	scorer, err := analysis.NewScorer(analysis.ScorerConfig{
		VelocityWeight:      cfg.Scorer.VelocityWeight,
		CompetitionWeight:   cfg.Scorer.CompetitionWeight,
		SeasonalBoostFactor: cfg.Scorer.SeasonalBoostFactor,
		SeasonalHorizonDays: cfg.Scorer.SeasonalHorizonDays,
		HighScore:           cfg.Scorer.HighScore,
		LowScore:            cfg.Scorer.LowScore,
		HighCompetition:     cfg.Scorer.HighCompetition,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid scorer configuration")
	}

	detector, err := analysis.NewDetector(analysis.DetectorConfig{
		VolumeRatioThreshold:      cfg.Arbitrage.VolumeRatioThreshold,
		CompetitionDeltaThreshold: cfg.Arbitrage.CompetitionDeltaThreshold,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid arbitrage configuration")
	}

	formatter, err := report.NewFormatter(cfg.Report.TopN)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid report configuration")
	}

	pipeline := ingest.NewPipeline(store, log)

	engine := analysis.NewEngine(
		store,
		classifier,
		matcher,
		scorer,
		detector,
		formatter,
		natsConn,
		log,
		analysis.EngineConfig{AlertsSubject: cfg.NATS.AlertsSubject},
	)

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg.Server,
		cfg.NATS.AlertsSubject,
		natsConn,
		store,
		pipeline,
		engine,
		log,
	)

	// Start HTTP server
	go func() {
		log.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Info().Msg("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection. An empty URL disables eventing entirely.
func initNATS(cfg config.NATSConfig, log zerolog.Logger) (*nats.Conn, error) {
	if cfg.URL == "" {
		log.Warn().Msg("NATS disabled; alerts will not be published")
		return nil, nil
	}

	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
