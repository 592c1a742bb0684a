// Package processor implements the score processing pipeline: the pluggable
// stat mutator contract, the explicit processor registry, and the
// orchestrator that applies eligible processors inside one transaction with
// revert/reapply semantics for version upgrades.
package processor

import (
	"context"
	"sort"

	"github.com/beatpulse/score-statistics/internal/models"
)

// CurrentVersion tags every successfully processed score. Raising it makes
// previously processed scores eligible for revert+reapply on redelivery, so
// every processor's Revert must be the exact inverse of its Apply at the
// version Apply originally ran under.
const CurrentVersion = 11

// Processor owns one statistic family. Apply and Revert mutate the in-memory
// aggregate only and must not touch external systems; ApplyGlobal runs after
// commit and is the sole place for non-transactional side effects.
type Processor interface {
	Name() string

	// Order determines apply/revert sequencing; later processors may depend
	// on fields mutated by earlier ones.
	Order() int

	RunOnFailedScores() bool
	RunOnLegacyScores() bool

	Apply(ctx context.Context, score *models.Score, stats *models.UserStats) error
	Revert(ctx context.Context, score *models.Score, stats *models.UserStats, fromVersion int) error
	ApplyGlobal(ctx context.Context, score *models.Score) error
}

// Registry is the compile-time processor list, held in ascending Order with
// registration order breaking ties.
type Registry struct {
	processors []Processor
}

// NewRegistry builds a registry from explicitly constructed processors.
func NewRegistry(processors ...Processor) *Registry {
	sorted := make([]Processor, len(processors))
	copy(sorted, processors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return &Registry{processors: sorted}
}

// Without returns a registry with the named processors filtered out.
func (r *Registry) Without(disabled []string) *Registry {
	if len(disabled) == 0 {
		return r
	}
	off := make(map[string]struct{}, len(disabled))
	for _, name := range disabled {
		off[name] = struct{}{}
	}

	kept := make([]Processor, 0, len(r.processors))
	for _, p := range r.processors {
		if _, ok := off[p.Name()]; !ok {
			kept = append(kept, p)
		}
	}
	return &Registry{processors: kept}
}

// Processors returns the ordered processor list.
func (r *Registry) Processors() []Processor {
	return r.processors
}

// Eligible resolves the processors that run for a score. The result is
// computed once per score and applied identically to revert and apply.
func (r *Registry) Eligible(score *models.Score) []Processor {
	eligible := make([]Processor, 0, len(r.processors))
	for _, p := range r.processors {
		if !score.Passed && !p.RunOnFailedScores() {
			continue
		}
		if score.IsLegacyScore() && !p.RunOnLegacyScores() {
			continue
		}
		eligible = append(eligible, p)
	}
	return eligible
}
