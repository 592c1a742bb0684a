package processor

import (
	"testing"

	"github.com/beatpulse/score-statistics/internal/models"
)

func TestRegistryOrdersByOrder(t *testing.T) {
	var calls []string
	registry := NewRegistry(
		&recordingProcessor{name: "third", order: 50, calls: &calls},
		&recordingProcessor{name: "first", order: 0, calls: &calls},
		&recordingProcessor{name: "second", order: 10, calls: &calls},
	)

	got := registry.Processors()
	want := []string{"first", "second", "third"}
	for i, name := range want {
		if got[i].Name() != name {
			t.Errorf("position %d: got %s, want %s", i, got[i].Name(), name)
		}
	}
}

func TestRegistryTieBreaksByRegistrationOrder(t *testing.T) {
	var calls []string
	registry := NewRegistry(
		&recordingProcessor{name: "a", order: 10, calls: &calls},
		&recordingProcessor{name: "b", order: 10, calls: &calls},
		&recordingProcessor{name: "c", order: 10, calls: &calls},
	)

	got := registry.Processors()
	for i, name := range []string{"a", "b", "c"} {
		if got[i].Name() != name {
			t.Errorf("position %d: got %s, want %s", i, got[i].Name(), name)
		}
	}
}

func TestRegistryWithout(t *testing.T) {
	var calls []string
	registry := NewRegistry(
		&recordingProcessor{name: "keep", order: 0, calls: &calls},
		&recordingProcessor{name: "drop", order: 10, calls: &calls},
	)

	filtered := registry.Without([]string{"drop"})
	if len(filtered.Processors()) != 1 || filtered.Processors()[0].Name() != "keep" {
		t.Errorf("Without: got %d processors, want only keep", len(filtered.Processors()))
	}

	// The original registry is untouched.
	if len(registry.Processors()) != 2 {
		t.Errorf("original registry mutated: %d processors", len(registry.Processors()))
	}
}

func TestRegistryEligible(t *testing.T) {
	var calls []string
	always := &recordingProcessor{name: "always", order: 0, onFailed: true, onLegacy: true, calls: &calls}
	passedOnly := &recordingProcessor{name: "passed_only", order: 10, calls: &calls}
	registry := NewRegistry(always, passedOnly)

	legacyID := int64(42)
	cases := []struct {
		name  string
		score *models.Score
		want  []string
	}{
		{"passed non-legacy", &models.Score{Passed: true}, []string{"always", "passed_only"}},
		{"failed", &models.Score{Passed: false}, []string{"always"}},
		{"legacy", &models.Score{Passed: true, LegacyScoreID: &legacyID}, []string{"always"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eligible := registry.Eligible(tc.score)
			if len(eligible) != len(tc.want) {
				t.Fatalf("got %d eligible, want %d", len(eligible), len(tc.want))
			}
			for i, name := range tc.want {
				if eligible[i].Name() != name {
					t.Errorf("position %d: got %s, want %s", i, eligible[i].Name(), name)
				}
			}
		})
	}
}
