package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/beatpulse/score-statistics/internal/cache"
	"github.com/beatpulse/score-statistics/internal/config"
	"github.com/beatpulse/score-statistics/internal/handlers"
	"github.com/beatpulse/score-statistics/internal/medals"
	"github.com/beatpulse/score-statistics/internal/mirror"
	"github.com/beatpulse/score-statistics/internal/performance"
	"github.com/beatpulse/score-statistics/internal/processor"
	"github.com/beatpulse/score-statistics/internal/queue"
	"github.com/beatpulse/score-statistics/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	zlog, err := newLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer zlog.Sync()
	logger := zlog.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatalw("Postgres connection failed", "error", err)
	}
	defer pool.Close()
	db := store.New(pool)

	// Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatalw("Invalid Redis URL", "error", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	// Caches
	beatmaps := cache.NewBeatmaps(db)
	gate := cache.NewGate(db, logger)
	gate.Start(ctx, cfg.CacheRefreshInterval)

	// Performance calculator
	var calc performance.Calculator = performance.Unavailable{}
	if cfg.PerformanceAPIURL != "" {
		calc = performance.NewHTTPCalculator(cfg.PerformanceAPIURL)
	} else {
		logger.Warnw("No performance calculator configured, scores will not be ranked")
	}
	attributes := cache.NewAttributes(calc)

	// Medal engine
	engine := medals.NewEngine(db, logger, 5*time.Minute)
	if err := engine.Reload(ctx); err != nil {
		logger.Fatalw("Initial medal load failed", "error", err)
	}

	// Processor registry
	procs := []processor.Processor{
		processor.NewPlayCount(),
		processor.NewTotals(beatmaps),
		processor.NewMaxCombo(),
		processor.NewPlayTime(beatmaps),
		processor.NewPerformance(beatmaps, attributes, gate, calc, logger),
		processor.NewRankCounts(),
		processor.NewMedals(engine),
	}

	if cfg.LegacyMySQLDSN != "" {
		mysqlDB, err := sql.Open("mysql", cfg.LegacyMySQLDSN)
		if err != nil {
			logger.Fatalw("Legacy MySQL connection failed", "error", err)
		}
		defer mysqlDB.Close()
		procs = append(procs, processor.NewLegacyMirror(db, mirror.NewLegacy(mysqlDB)))
	}

	if cfg.ClickHouseURL != "" {
		chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
		if err != nil {
			logger.Fatalw("Invalid ClickHouse URL", "error", err)
		}
		chConn, err := clickhouse.Open(chOpts)
		if err != nil {
			logger.Fatalw("ClickHouse connection failed", "error", err)
		}
		defer chConn.Close()
		procs = append(procs, processor.NewScoreArchive(mirror.NewArchive(chConn)))
	}

	registry := processor.NewRegistry(procs...).Without(cfg.DisabledProcessors)
	for _, p := range registry.Processors() {
		logger.Infow("Processor enabled", "name", p.Name(), "order", p.Order())
	}

	publisher := queue.NewPublisher(rdb, cfg.IndexQueueName, cfg.EventChannel)
	orch := processor.NewOrchestrator(db, registry, publisher, logger)
	consumer := queue.NewConsumer(rdb, cfg.QueueName, db, orch, logger)
	go consumer.ReportDepth(ctx)

	// Ops HTTP server
	handler := handlers.New(db, engine, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler.Router(cfg.AllowedOrigins),
	}
	go func() {
		logger.Infow("Ops server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("Ops server failed", "error", err)
			stop()
		}
	}()

	// Blocks until the context is cancelled by a signal.
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorw("Consumer stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("Ops server shutdown failed", "error", err)
	}
	logger.Infow("Shutdown complete")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
