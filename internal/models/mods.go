package models

// Mods is a bitmask of gameplay modifiers attached to a score.
type Mods uint32

const (
	ModNoFail Mods = 1 << iota
	ModEasy
	ModTouchDevice
	ModHidden
	ModHardRock
	ModSuddenDeath
	ModDoubleTime
	ModRelax
	ModHalfTime
	ModNightcore
	ModFlashlight
	ModAutoplay
	ModSpunOut
	ModAutopilot
	ModPerfect
	ModMirror
)

// DifficultyMods are the mods that change difficulty attributes. Attribute
// cache keys are normalized to this mask so that cosmetic mods (hidden,
// mirror, ...) share one cache entry.
const DifficultyMods = ModEasy | ModHardRock | ModDoubleTime | ModHalfTime | ModNightcore | ModFlashlight | ModTouchDevice

// ReductionMods lower the required skill and disqualify a score from
// "no reduction mods" pack medals.
const ReductionMods = ModNoFail | ModEasy | ModHalfTime | ModSpunOut | ModRelax | ModAutopilot

// PerformanceBlockedMods never contribute performance, regardless of the
// beatmap's status.
const PerformanceBlockedMods = ModAutoplay | ModRelax | ModAutopilot

// AllowsPerformance reports whether the mod combination is eligible for a
// performance contribution.
func (m Mods) AllowsPerformance() bool {
	return m&PerformanceBlockedMods == 0
}

// Normalized collapses the mod list to the difficulty-affecting subset,
// folding nightcore into double time (identical rate change).
func (m Mods) Normalized() Mods {
	n := m & DifficultyMods
	if n&ModNightcore != 0 {
		n = (n &^ ModNightcore) | ModDoubleTime
	}
	return n
}

// HasAny reports whether any mod of the given mask is set.
func (m Mods) HasAny(mask Mods) bool {
	return m&mask != 0
}

// SpeedMultiplier is the playback rate implied by the mod list, used to
// convert beatmap length into real play time.
func (m Mods) SpeedMultiplier() float64 {
	switch {
	case m.HasAny(ModDoubleTime | ModNightcore):
		return 1.5
	case m.HasAny(ModHalfTime):
		return 0.75
	default:
		return 1.0
	}
}
