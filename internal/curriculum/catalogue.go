// Package curriculum builds, imports and publishes the level catalogue the
// progression engine reads.
package curriculum

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/abhisek/wordsmith/internal/progression"
	"github.com/abhisek/wordsmith/internal/store"
)

// Catalogue is a versioned set of writing levels.
type Catalogue struct {
	// Version is a semantic version, with or without a leading "v".
	Version string
	Levels  []store.LevelRecord
}

// LevelID returns the stable id for a level number.
func LevelID(number int) string {
	return fmt.Sprintf("wl-%02d", number)
}

// canonical returns v in the "vMAJOR.MINOR.PATCH" form semver expects, or
// "" when v is not a valid version.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// Level returns the level with the given number, or false.
func (c *Catalogue) Level(number int) (store.LevelRecord, bool) {
	for _, l := range c.Levels {
		if l.Number == number {
			return l, true
		}
	}
	return store.LevelRecord{}, false
}

// Sort orders levels by number.
func (c *Catalogue) Sort() {
	sort.Slice(c.Levels, func(i, j int) bool { return c.Levels[i].Number < c.Levels[j].Number })
}

// Validate performs the structural checks the progression engine relies
// on. Returns a combined error describing all problems found.
func (c *Catalogue) Validate() error {
	var errs []string

	if canonical(c.Version) == "" {
		errs = append(errs, fmt.Sprintf("invalid catalogue version %q", c.Version))
	}
	if len(c.Levels) != progression.MaxLevel {
		errs = append(errs, fmt.Sprintf("catalogue has %d levels, want %d", len(c.Levels), progression.MaxLevel))
	}

	ids := make(map[string]bool, len(c.Levels))
	numbers := make(map[int]bool, len(c.Levels))
	for _, l := range c.Levels {
		prefix := fmt.Sprintf("level %d (%s)", l.Number, l.ID)

		if l.ID == "" {
			errs = append(errs, fmt.Sprintf("%s: empty id", prefix))
		} else if ids[l.ID] {
			errs = append(errs, fmt.Sprintf("duplicate level id %q", l.ID))
		}
		ids[l.ID] = true

		if l.Number < 1 || l.Number > progression.MaxLevel {
			errs = append(errs, fmt.Sprintf("%s: number must be in [1, %d]", prefix, progression.MaxLevel))
			continue
		}
		if numbers[l.Number] {
			errs = append(errs, fmt.Sprintf("duplicate level number %d", l.Number))
		}
		numbers[l.Number] = true

		if l.Tier != progression.TierOf(l.Number) {
			errs = append(errs, fmt.Sprintf("%s: tier %d, want %d", prefix, l.Tier, progression.TierOf(l.Number)))
		}
		if l.PassingThreshold <= 0 || l.PassingThreshold > 100 {
			errs = append(errs, fmt.Sprintf("%s: passing threshold must be in (0, 100], got %g", prefix, l.PassingThreshold))
		}
		if len(l.TargetConcepts) == 0 {
			errs = append(errs, fmt.Sprintf("%s: no target concepts", prefix))
		}
		if strings.TrimSpace(l.PromptTitle) == "" {
			errs = append(errs, fmt.Sprintf("%s: empty prompt title", prefix))
		}
		if wantFinale := l.Number%progression.LevelsPerTier == 0; l.TierFinale != wantFinale {
			errs = append(errs, fmt.Sprintf("%s: tier finale flag is %v, want %v", prefix, l.TierFinale, wantFinale))
		}
		if wantEnd := l.Number == progression.MaxLevel; l.ProgrammeFinale != wantEnd {
			errs = append(errs, fmt.Sprintf("%s: programme finale flag is %v, want %v", prefix, l.ProgrammeFinale, wantEnd))
		}
		if len(l.Rubric) > 0 {
			var obj map[string]any
			if err := json.Unmarshal(l.Rubric, &obj); err != nil {
				errs = append(errs, fmt.Sprintf("%s: rubric is not a JSON object", prefix))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalogue validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
