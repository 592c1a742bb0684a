package batch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestPartition(t *testing.T) {
	cases := []struct {
		name string
		keys []int64
		n    int
		want [][]int64
	}{
		{"even split", []int64{1, 2, 3, 4}, 2, [][]int64{{1, 2}, {3, 4}}},
		{"remainder spread", []int64{1, 2, 3, 4, 5}, 2, [][]int64{{1, 2, 3}, {4, 5}}},
		{"more workers than keys", []int64{1, 2}, 5, [][]int64{{1}, {2}}},
		{"single worker", []int64{1, 2, 3}, 1, [][]int64{{1, 2, 3}}},
		{"zero workers clamps", []int64{1, 2}, 0, [][]int64{{1, 2}}},
		{"empty keys", nil, 3, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Partition(tc.keys, tc.n)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d chunks, want %d", len(got), len(tc.want))
			}
			for i, chunk := range tc.want {
				if len(got[i]) != len(chunk) {
					t.Fatalf("chunk %d: got %v, want %v", i, got[i], chunk)
				}
				for j, key := range chunk {
					if got[i][j] != key {
						t.Errorf("chunk %d: got %v, want %v", i, got[i], chunk)
					}
				}
			}
		})
	}
}

func TestEngineProcessesEveryKey(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int64]int)

	engine := NewEngine(4, func(_ context.Context, key int64) error {
		mu.Lock()
		seen[key]++
		mu.Unlock()
		return nil
	}, zap.NewNop().Sugar())

	keys := make([]int64, 100)
	for i := range keys {
		keys[i] = int64(i + 1)
	}
	if err := engine.Run(context.Background(), keys); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if engine.Processed() != 100 {
		t.Errorf("processed %d, want 100", engine.Processed())
	}
	for _, key := range keys {
		if seen[key] != 1 {
			t.Errorf("key %d processed %d times", key, seen[key])
		}
	}
}

func TestEngineCountsFailuresAndContinues(t *testing.T) {
	engine := NewEngine(2, func(_ context.Context, key int64) error {
		if key%2 == 0 {
			return errors.New("boom")
		}
		return nil
	}, zap.NewNop().Sugar())

	if err := engine.Run(context.Background(), []int64{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("per-item failures must not abort the run: %v", err)
	}
	if engine.Processed() != 3 || engine.Failed() != 3 {
		t.Errorf("processed=%d failed=%d, want 3/3", engine.Processed(), engine.Failed())
	}
}

func TestEngineStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	engine := NewEngine(1, func(_ context.Context, key int64) error {
		if key == 3 {
			cancel()
		}
		return nil
	}, zap.NewNop().Sugar())

	keys := make([]int64, 1000)
	for i := range keys {
		keys[i] = int64(i + 1)
	}
	err := engine.Run(ctx, keys)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
	if engine.Processed() >= 1000 {
		t.Error("cancellation did not stop the run early")
	}
}
