package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/beatpulse/score-statistics/internal/models"
	"github.com/beatpulse/score-statistics/internal/processor"
)

const (
	popTimeout        = 5 * time.Second
	depthReportPeriod = 5 * time.Second
	requeueBackoff    = time.Second
)

var (
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scorestats_queue_depth",
		Help: "Current number of scores waiting in the processing queue",
	})
	queueMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorestats_queue_malformed_total",
		Help: "Total number of queue payloads that could not be decoded",
	})
	queueRedelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorestats_queue_redelivered_total",
		Help: "Total number of scores pushed back for redelivery after a failure",
	})
)

// envelope is the queue wire format. ProcessedVersion is set on upgrade
// redeliveries where the enqueuer already knows the prior version.
type envelope struct {
	ScoreID          int64 `json:"score_id"`
	ProcessedVersion *int  `json:"processed_version,omitempty"`
}

// ScoreLoader resolves the queue envelope into a full pipeline item.
type ScoreLoader interface {
	Score(ctx context.Context, id int64) (*models.Score, error)
	ProcessHistory(ctx context.Context, scoreID int64) (*models.ProcessHistory, error)
}

// Pipeline processes one item. Satisfied by *processor.Orchestrator.
type Pipeline interface {
	ProcessScore(ctx context.Context, item processor.Item) error
}

// Consumer pops score ids from the Redis queue and runs each through the
// pipeline. Failed items are pushed back for redelivery.
type Consumer struct {
	rdb       redisCommands
	queueName string
	loader    ScoreLoader
	pipeline  Pipeline
	logger    *zap.SugaredLogger
}

func NewConsumer(rdb *redis.Client, queueName string, loader ScoreLoader, pipeline Pipeline, logger *zap.SugaredLogger) *Consumer {
	return &Consumer{
		rdb:       rdb,
		queueName: queueName,
		loader:    loader,
		pipeline:  pipeline,
		logger:    logger,
	}
}

// Run blocks popping and processing until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Infow("Queue consumer started", "queue", c.queueName)

	for {
		if err := ctx.Err(); err != nil {
			c.logger.Infow("Queue consumer stopping", "queue", c.queueName)
			return err
		}

		res, err := c.rdb.BRPop(ctx, popTimeout, c.queueName).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Errorw("Queue pop failed", "queue", c.queueName, "error", err)
			time.Sleep(requeueBackoff)
			continue
		}

		// BRPop returns [key, value].
		c.handle(ctx, res[1])
	}
}

func (c *Consumer) handle(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		queueMalformed.Inc()
		c.logger.Errorw("Dropping malformed queue payload", "payload", payload, "error", err)
		return
	}

	if err := c.process(ctx, env); err != nil {
		c.logger.Errorw("Score processing failed, requeueing", "scoreID", env.ScoreID, "error", err)
		c.requeue(ctx, payload)
	}
}

func (c *Consumer) process(ctx context.Context, env envelope) error {
	score, err := c.loader.Score(ctx, env.ScoreID)
	if err != nil {
		return fmt.Errorf("load score %d: %w", env.ScoreID, err)
	}
	if score == nil {
		c.logger.Warnw("Queued score does not exist, dropping", "scoreID", env.ScoreID)
		return nil
	}

	history, err := c.loader.ProcessHistory(ctx, env.ScoreID)
	if err != nil {
		return fmt.Errorf("load process history for score %d: %w", env.ScoreID, err)
	}
	// The enqueuer's version hint only fills in for a missing history row;
	// the persisted row is authoritative.
	if history == nil && env.ProcessedVersion != nil {
		history = &models.ProcessHistory{ScoreID: env.ScoreID, ProcessedVersion: *env.ProcessedVersion}
	}

	return c.pipeline.ProcessScore(ctx, processor.Item{Score: score, History: history})
}

// requeue pushes the original payload back to the front so a transient
// failure retries without losing the item. Uses a fresh context so
// shutdown does not drop the in-flight score.
func (c *Consumer) requeue(ctx context.Context, payload string) {
	pushCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		pushCtx, cancel = context.WithTimeout(context.Background(), popTimeout)
		defer cancel()
	}
	if err := c.rdb.LPush(pushCtx, c.queueName, payload).Err(); err != nil {
		c.logger.Errorw("Requeue failed, score lost until re-enqueued upstream", "payload", payload, "error", err)
		return
	}
	queueRedelivered.Inc()
}

// ReportDepth samples the queue length into the depth gauge until the
// context is cancelled.
func (c *Consumer) ReportDepth(ctx context.Context) {
	ticker := time.NewTicker(depthReportPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depth, err := c.rdb.LLen(ctx, c.queueName).Result()
			if err != nil {
				c.logger.Warnw("Queue depth probe failed", "queue", c.queueName, "error", err)
				continue
			}
			queueDepth.Set(float64(depth))
		}
	}
}
