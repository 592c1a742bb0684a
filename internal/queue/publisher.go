// Package queue implements the Redis delivery surface: the blocking
// consumer that feeds scores into the pipeline and the publisher for the
// search-index push and the processed-score event channel.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisCommands is the subset of *redis.Client the queue package touches,
// narrowed for testing.
type redisCommands interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// processedEvent is the payload published on the event channel after a
// score commits. EventID dedupes at-least-once consumers.
type processedEvent struct {
	EventID          string `json:"event_id"`
	ScoreID          int64  `json:"score_id"`
	ProcessedVersion int    `json:"processed_version"`
}

// Publisher delivers the post-commit notifications.
type Publisher struct {
	rdb          redisCommands
	indexQueue   string
	eventChannel string
}

func NewPublisher(rdb *redis.Client, indexQueue, eventChannel string) *Publisher {
	return &Publisher{rdb: rdb, indexQueue: indexQueue, eventChannel: eventChannel}
}

// PushToIndex enqueues the score for the search indexer.
func (p *Publisher) PushToIndex(ctx context.Context, scoreID int64) error {
	if err := p.rdb.LPush(ctx, p.indexQueue, scoreID).Err(); err != nil {
		return fmt.Errorf("push score %d to index queue: %w", scoreID, err)
	}
	return nil
}

// PublishProcessed announces the processed score on the event channel.
func (p *Publisher) PublishProcessed(ctx context.Context, scoreID int64, version int) error {
	payload, err := json.Marshal(processedEvent{
		EventID:          uuid.NewString(),
		ScoreID:          scoreID,
		ProcessedVersion: version,
	})
	if err != nil {
		return fmt.Errorf("marshal processed event for score %d: %w", scoreID, err)
	}
	if err := p.rdb.Publish(ctx, p.eventChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish processed event for score %d: %w", scoreID, err)
	}
	return nil
}
