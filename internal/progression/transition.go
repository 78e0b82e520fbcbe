package progression

import (
	"cmp"
	"slices"
	"time"

	"github.com/abhisek/wordsmith/internal/store"
)

// Transition is the effect of one passed attempt.
type Transition struct {
	AttemptID   string
	PupilID     string
	LevelID     string
	LevelNumber int

	// TargetLevel is where the pupil moves to: the next level, or the last
	// level when the attempt was at the end of the programme.
	TargetLevel int

	// NextLevelNumber is the unlocked level, 0 when there is none.
	NextLevelNumber int

	// NextLevelID is the resolved id of NextLevelNumber. It stays empty
	// when there is no next level or the lookup failed.
	NextLevelID string

	// CompletedTier is the tier finished by this attempt, 0 for none.
	CompletedTier      int
	ProgrammeCompleted bool
	Band               string
	At                 time.Time
}

// TransitionFor builds the transition for a passed attempt at level. The
// next level's id is resolved separately by the caller.
func TransitionFor(attemptID, pupilID string, level *store.LevelRecord, band string, at time.Time) Transition {
	t := Transition{
		AttemptID:          attemptID,
		PupilID:            pupilID,
		LevelID:            level.ID,
		LevelNumber:        level.Number,
		ProgrammeCompleted: level.ProgrammeFinale,
		Band:               band,
		At:                 at,
	}

	next := level.Number + 1
	if next <= MaxLevel {
		t.NextLevelNumber = next
	}
	t.TargetLevel = min(next, MaxLevel)

	if level.TierFinale {
		t.CompletedTier = level.Tier
		if t.CompletedTier == 0 {
			t.CompletedTier = TierOf(level.Number)
		}
	}
	return t
}

// Apply returns p with t merged in. It never moves the current level
// backwards, never shrinks a completed set and never reverts programme
// completion. Band counters grow by one per call.
func Apply(p Progress, t Transition) Progress {
	out := p
	out.CompletedLevels = insertSorted(slices.Clone(p.CompletedLevels), t.LevelID)
	out.CompletedTiers = slices.Clone(p.CompletedTiers)
	if out.CompletedLevels == nil {
		out.CompletedLevels = []string{}
	}
	if out.CompletedTiers == nil {
		out.CompletedTiers = []int{}
	}

	if t.TargetLevel > p.CurrentLevel {
		out.CurrentLevel = t.TargetLevel
		out.CurrentTier = TierOf(t.TargetLevel)
		out.CurrentLevelID = targetLevelID(t)
	}

	if t.CompletedTier > 0 {
		out.CompletedTiers = insertSorted(out.CompletedTiers, t.CompletedTier)
	}

	if t.ProgrammeCompleted && !p.ProgrammeCompleted {
		out.ProgrammeCompleted = true
		at := t.At
		out.ProgrammeCompletedAt = &at
	}

	out.BandCounts = zeroBands()
	for band, n := range p.BandCounts {
		out.BandCounts[band] = n
	}
	if _, known := out.BandCounts[t.Band]; known {
		out.BandCounts[t.Band]++
	}
	return out
}

// Delta converts t into the store's merge input.
func (t Transition) Delta() store.ProgressDelta {
	return store.ProgressDelta{
		AttemptID:          t.AttemptID,
		PupilID:            t.PupilID,
		LevelID:            t.LevelID,
		CurrentLevel:       t.TargetLevel,
		CurrentTier:        TierOf(t.TargetLevel),
		CurrentLevelID:     targetLevelID(t),
		CompletedTier:      t.CompletedTier,
		ProgrammeCompleted: t.ProgrammeCompleted,
		Band:               t.Band,
		NextLevelID:        t.NextLevelID,
		At:                 t.At,
	}
}

// targetLevelID is the id of TargetLevel: the next level's id, or the
// attempt's own level when it was the last one.
func targetLevelID(t Transition) string {
	if t.NextLevelNumber == 0 {
		return t.LevelID
	}
	return t.NextLevelID
}

func insertSorted[T cmp.Ordered](s []T, v T) []T {
	i, found := slices.BinarySearch(s, v)
	if found {
		return s
	}
	return slices.Insert(s, i, v)
}
