// Package progression moves a pupil through the 40-level writing
// curriculum. The rules live in Apply, a pure function; the store applies
// the same merge as one guarded upsert.
package progression

import (
	"slices"
	"time"

	"github.com/abhisek/wordsmith/internal/store"
)

const (
	// MaxLevel is the last level of the programme.
	MaxLevel = 40

	// LevelsPerTier groups consecutive levels into tiers.
	LevelsPerTier = 5

	// MaxTier is the number of tiers.
	MaxTier = MaxLevel / LevelsPerTier
)

// TierOf returns the tier containing level, ceil(level/5).
func TierOf(level int) int {
	if level < 1 {
		return 1
	}
	return (level + LevelsPerTier - 1) / LevelsPerTier
}

// Progress is a pupil's curriculum position.
type Progress struct {
	PupilID        string `json:"pupil_id"`
	CurrentLevel   int    `json:"current_level"`
	CurrentTier    int    `json:"current_tier"`
	CurrentLevelID string `json:"current_level_id"`

	// CompletedLevels and CompletedTiers are sorted sets.
	CompletedLevels []string `json:"completed_levels"`
	CompletedTiers  []int    `json:"completed_tiers"`

	ProgrammeCompleted   bool       `json:"programme_completed"`
	ProgrammeCompletedAt *time.Time `json:"programme_completed_at,omitempty"`

	BandCounts map[string]int `json:"band_counts"`
}

// NewProgress returns the initial state: level 1, tier 1, nothing
// completed.
func NewProgress(pupilID string) Progress {
	return Progress{
		PupilID:         pupilID,
		CurrentLevel:    1,
		CurrentTier:     1,
		CompletedLevels: []string{},
		CompletedTiers:  []int{},
		BandCounts:      zeroBands(),
	}
}

// HasCompleted reports whether levelID is in the completed set.
func (p Progress) HasCompleted(levelID string) bool {
	_, found := slices.BinarySearch(p.CompletedLevels, levelID)
	return found
}

func zeroBands() map[string]int {
	return map[string]int{
		store.BandEmerging:   0,
		store.BandDeveloping: 0,
		store.BandSecure:     0,
		store.BandMastery:    0,
	}
}

func fromRecord(r *store.ProgressRecord) Progress {
	p := Progress{
		PupilID:              r.PupilID,
		CurrentLevel:         r.CurrentLevel,
		CurrentTier:          r.CurrentTier,
		CurrentLevelID:       r.CurrentLevelID,
		CompletedLevels:      slices.Clone(r.CompletedLevels),
		CompletedTiers:       slices.Clone(r.CompletedTiers),
		ProgrammeCompleted:   r.ProgrammeCompleted,
		ProgrammeCompletedAt: r.ProgrammeCompletedAt,
		BandCounts:           zeroBands(),
	}
	if p.CompletedLevels == nil {
		p.CompletedLevels = []string{}
	}
	if p.CompletedTiers == nil {
		p.CompletedTiers = []int{}
	}
	slices.Sort(p.CompletedLevels)
	slices.Sort(p.CompletedTiers)
	for band, n := range r.BandCounts {
		p.BandCounts[band] = n
	}
	return p
}
