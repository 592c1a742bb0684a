package models

// BeatmapStatus is the approval state of a beatmap.
type BeatmapStatus int

const (
	StatusGraveyard BeatmapStatus = -2
	StatusWIP       BeatmapStatus = -1
	StatusPending   BeatmapStatus = 0
	StatusRanked    BeatmapStatus = 1
	StatusApproved  BeatmapStatus = 2
	StatusQualified BeatmapStatus = 3
	StatusLoved     BeatmapStatus = 4
)

// Beatmap is reference data, read-only to the pipeline and served from the
// process-local cache.
type Beatmap struct {
	ID          int64         `json:"id"`
	SetID       int64         `json:"beatmapset_id"`
	Status      BeatmapStatus `json:"status"`
	Playmode    Ruleset       `json:"playmode"`
	TotalLength int           `json:"total_length"` // seconds
}

// DifficultyAttributes is the named numeric output of the difficulty
// calculator for one (beatmap, ruleset, mods) combination. Entries are
// immutable once computed.
type DifficultyAttributes map[string]float64

// StarRating returns the headline difficulty value, 0 if absent.
func (a DifficultyAttributes) StarRating() float64 {
	return a["star_rating"]
}
