package models

import "time"

// MedalKind distinguishes how a medal's completion predicate is evaluated.
type MedalKind string

const (
	// MedalSimple is satisfied by a threshold on the just-updated aggregate.
	MedalSimple MedalKind = "simple"
	// MedalPack requires a qualifying score on every beatmapset of a pack.
	MedalPack MedalKind = "pack"
)

// Medal is a static achievement definition.
type Medal struct {
	ID       int64     `json:"id"`
	Slug     string    `json:"slug"`
	Name     string    `json:"name"`
	Ordering int       `json:"ordering"`
	Kind     MedalKind `json:"kind"`

	// Simple medals: aggregate field and threshold.
	Stat      string `json:"stat,omitempty"`
	Threshold int64  `json:"threshold,omitempty"`

	// Pack medals.
	PackID *int64 `json:"pack_id,omitempty"`
}

// Pack is a collection of beatmapsets whose joint completion unlocks a
// pack medal.
type Pack struct {
	ID              int64   `json:"id"`
	BeatmapsetIDs   []int64 `json:"beatmapset_ids"`
	NoReductionMods bool    `json:"no_reduction_mods"`
}

// UserAchievement is the append-only award fact. Its existence is the
// authoritative "already awarded" signal; rows are never updated or deleted.
type UserAchievement struct {
	UserID    int64     `json:"user_id"`
	MedalID   int64     `json:"medal_id"`
	ScoreID   int64     `json:"score_id"`
	AwardedAt time.Time `json:"awarded_at"`
}
