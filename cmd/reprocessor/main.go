// Command reprocessor replays stored scores through the processing
// pipeline, typically after a pipeline version bump. Keys come from a file
// (or stdin) with one id per line; -mode selects whether they are score
// ids or user ids.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/beatpulse/score-statistics/internal/batch"
	"github.com/beatpulse/score-statistics/internal/cache"
	"github.com/beatpulse/score-statistics/internal/config"
	"github.com/beatpulse/score-statistics/internal/medals"
	"github.com/beatpulse/score-statistics/internal/mirror"
	"github.com/beatpulse/score-statistics/internal/models"
	"github.com/beatpulse/score-statistics/internal/performance"
	"github.com/beatpulse/score-statistics/internal/processor"
	"github.com/beatpulse/score-statistics/internal/queue"
	"github.com/beatpulse/score-statistics/internal/store"
)

func main() {
	mode := flag.String("mode", "scores", "key kind: scores or users")
	ruleset := flag.Int("ruleset", 0, "ruleset for user mode (0=osu 1=taiko 2=catch 3=mania)")
	workers := flag.Int("workers", 0, "worker count (default WORKER_COUNT env)")
	idsPath := flag.String("ids", "-", "path to id list, one per line; - for stdin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *workers <= 0 {
		*workers = cfg.WorkerCount
	}
	if *mode != "scores" && *mode != "users" {
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(1)
	}
	rs := models.Ruleset(*ruleset)
	if !rs.Valid() {
		fmt.Fprintf(os.Stderr, "invalid ruleset %d\n", *ruleset)
		os.Exit(1)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer zlog.Sync()
	logger := zlog.Sugar()

	keys, err := readKeys(*idsPath)
	if err != nil {
		logger.Fatalw("Reading id list failed", "path", *idsPath, "error", err)
	}
	if len(keys) == 0 {
		logger.Infow("No keys to process")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatalw("Postgres connection failed", "error", err)
	}
	defer pool.Close()
	db := store.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatalw("Invalid Redis URL", "error", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	beatmaps := cache.NewBeatmaps(db)
	gate := cache.NewGate(db, logger)
	gate.Start(ctx, cfg.CacheRefreshInterval)

	var calc performance.Calculator = performance.Unavailable{}
	if cfg.PerformanceAPIURL != "" {
		calc = performance.NewHTTPCalculator(cfg.PerformanceAPIURL)
	}
	attributes := cache.NewAttributes(calc)

	engine := medals.NewEngine(db, logger, 5*time.Minute)
	if err := engine.Reload(ctx); err != nil {
		logger.Fatalw("Initial medal load failed", "error", err)
	}

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
	publisher := queue.NewPublisher(rdb, cfg.IndexQueueName, cfg.EventChannel)
	orch := processor.NewOrchestrator(db, registry, publisher, logger)

	var engineRun *batch.Engine
	switch *mode {
	case "scores":
		engineRun = batch.NewScoreReprocessor(*workers, db, orch, logger)
	case "users":
		engineRun = batch.NewUserReprocessor(*workers, rs, db, orch, logger)
	}

	logger.Infow("Reprocessing started", "mode", *mode, "keys", len(keys), "workers", *workers)
	start := time.Now()
	err = engineRun.Run(ctx, keys)

	logger.Infow("Reprocessing finished",
		"processed", engineRun.Processed(),
		"failed", engineRun.Failed(),
		"elapsed", time.Since(start))
	fmt.Printf("processed=%d failed=%d\n", engineRun.Processed(), engineRun.Failed())

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalw("Reprocessing aborted", "error", err)
	}
}

func readKeys(path string) ([]int64, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var keys []int64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", line, err)
		}
		keys = append(keys, id)
	}
	return keys, scanner.Err()
}
