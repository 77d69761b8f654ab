package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/greenmiles/rewards-api/internal/api"
	"github.com/greenmiles/rewards-api/internal/api/metrics"
	"github.com/greenmiles/rewards-api/internal/api/middleware"
	"github.com/greenmiles/rewards-api/internal/core/ports"
	"github.com/greenmiles/rewards-api/internal/core/service"
	"github.com/greenmiles/rewards-api/internal/infrastructure/config"
	"github.com/greenmiles/rewards-api/internal/infrastructure/db/memory"
	mongostore "github.com/greenmiles/rewards-api/internal/infrastructure/db/mongo"
	redisstore "github.com/greenmiles/rewards-api/internal/infrastructure/db/redis"
	"github.com/greenmiles/rewards-api/internal/infrastructure/http/handlers"
	"github.com/greenmiles/rewards-api/internal/infrastructure/queue"
	"github.com/greenmiles/rewards-api/internal/infrastructure/realtime"
	"github.com/greenmiles/rewards-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "rewards-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Ledger store ---
	store := memory.NewStore()
	if cfg.SeedDemoData {
		if err := memory.Seed(ctx, store, time.Now()); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
		log.Info().Msg("demo data seeded")
	}
	readiness := map[string]handlers.Pinger{"store": store}

	// --- Journal (optional, MongoDB) ---
	var journal ports.JournalSink = service.NopJournal{}
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	var dispatcher *queue.JournalDispatcher
	var mongoClient *mongostore.Client
	if cfg.Mongo.URI != "" {
		var err error
		mongoClient, err = mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		repo := mongostore.NewJournalRepository(mongoClient.Database())
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create journal indexes")
		}
		dispatcher = queue.NewJournalDispatcher(cfg.Mongo.Workers, repo, logger.Component("journal"))
		dispatcher.Start(workersCtx)
		journal = dispatcher
		readiness["mongodb"] = mongoClient
		log.Info().Str("database", cfg.Mongo.Database).Int("workers", cfg.Mongo.Workers).Msg("ledger journal enabled")
	}
	journal = metrics.NewLedgerSink(journal)

	// --- Idempotency (optional, Redis) ---
	var idempotency middleware.IdempotencyStore
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		var err error
		rdb, err = redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		idempotency = redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
		readiness["redis"] = redisstore.Pinger{Client: rdb}
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.IdempotencyTTL).Msg("idempotency guard enabled")
	}

	// --- Services ---
	hub := realtime.NewHub(realtime.ClientOptions{}, logger.Component("realtime"))
	accounting := service.NewAccountingService(store, journal, logger.Component("accounting"))
	stations := service.NewStationService(store, hub, cfg.Simulator.PersistRenewable, logger.Component("stations"))
	users := service.NewUserService(store, accounting, cfg.BcryptCost, logger.Component("users"))
	dashboards := service.NewDashboardService(store, accounting)

	if cfg.Simulator.Enabled {
		sim := realtime.NewSimulator(stations, cfg.Simulator.AvailabilityInterval, cfg.Simulator.RenewableInterval, logger.Component("simulator"))
		go sim.Run(ctx)
	}

	e := api.NewRouter(api.Deps{
		Accounting:     accounting,
		Users:          users,
		Stations:       stations,
		Dashboards:     dashboards,
		Hub:            hub,
		Idempotency:    idempotency,
		Readiness:      readiness,
		DemoUserID:     cfg.DemoUserID,
		AllowedOrigins: cfg.Realtime.AllowedOrigins,
		Log:            log,
	})

	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	hub.Shutdown()

	stopWorkers()
	if dispatcher != nil {
		dispatcher.Wait()
	}
	if mongoClient != nil {
		if err := mongoClient.Close(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}
	log.Info().Msg("server stopped")
}
