// Package batch implements parallel reprocessing over explicit key lists.
// Keys are partitioned across workers so each key is owned by exactly one
// worker. Callers must not run two engines over overlapping user
// populations at once: the pipeline assumes a single writer per user
// aggregate, and the row lock only serializes, it does not deduplicate
// concurrent reverts.
package batch

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	batchProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorestats_batch_items_processed_total",
		Help: "Total number of batch keys processed successfully",
	})
	batchFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorestats_batch_items_failed_total",
		Help: "Total number of batch keys that failed",
	})
)

// Work processes one key. Per-key failures are logged and counted, never
// fatal to the run.
type Work func(ctx context.Context, key int64) error

// Partition splits keys into at most n contiguous, order-preserving
// chunks. Every key lands in exactly one chunk.
func Partition(keys []int64, n int) [][]int64 {
	if n < 1 {
		n = 1
	}
	if n > len(keys) {
		n = len(keys)
	}
	if n == 0 {
		return nil
	}

	chunks := make([][]int64, 0, n)
	size := len(keys) / n
	extra := len(keys) % n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < extra {
			end++
		}
		chunks = append(chunks, keys[start:end])
		start = end
	}
	return chunks
}

// Engine drives a Work function over a key list with a fixed worker count.
type Engine struct {
	workers int
	work    Work
	logger  *zap.SugaredLogger

	processed atomic.Int64
	failed    atomic.Int64
}

func NewEngine(workers int, work Work, logger *zap.SugaredLogger) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{workers: workers, work: work, logger: logger}
}

// Run processes every key, returning only on cancellation. The processed
// and failed counts survive either way.
func (e *Engine) Run(ctx context.Context, keys []int64) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, chunk := range Partition(keys, e.workers) {
		chunk := chunk
		g.Go(func() error {
			for _, key := range chunk {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := e.work(ctx, key); err != nil {
					e.failed.Add(1)
					batchFailed.Inc()
					e.logger.Errorw("Batch item failed", "key", key, "error", err)
					continue
				}
				e.processed.Add(1)
				batchProcessed.Inc()
			}
			return nil
		})
	}

	return g.Wait()
}

// Processed reports how many keys completed successfully so far.
func (e *Engine) Processed() int64 { return e.processed.Load() }

// Failed reports how many keys errored so far.
func (e *Engine) Failed() int64 { return e.failed.Load() }
