package progression

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/wordsmith/internal/store"
)

// PersistenceError means a passed attempt's progression could not be
// written. The assessment itself is already stored; the attempt stays
// pending and is picked up by the reconciler.
type PersistenceError struct {
	AttemptID string
	PupilID   string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("apply progression for attempt %s (pupil %s): %v", e.AttemptID, e.PupilID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ServiceConfig bounds the inline write retry.
type ServiceConfig struct {
	WriteAttempts int
	WriteBackoff  time.Duration
}

// DefaultServiceConfig returns three write attempts 50ms apart.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		WriteAttempts: 3,
		WriteBackoff:  50 * time.Millisecond,
	}
}

// Service applies transitions to the store and reads progress back.
type Service struct {
	progress store.ProgressRepo
	levels   store.LevelRepo
	cfg      ServiceConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a progression service.
func NewService(progress store.ProgressRepo, levels store.LevelRepo, cfg ServiceConfig, logger *zap.Logger) *Service {
	if cfg.WriteAttempts < 1 {
		cfg.WriteAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		progress: progress,
		levels:   levels,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// PassedAttempt identifies an assessed attempt that passed its level.
type PassedAttempt struct {
	AttemptID string
	PupilID   string
	Level     *store.LevelRecord
	Band      string
}

// Outcome reports what Record did.
type Outcome struct {
	// Applied is false when the attempt had already been applied.
	Applied    bool
	Transition Transition
}

// Record commits the transition for a passed attempt. Resolving the next
// level is best-effort: a failed lookup is logged and the primary update
// still goes ahead without the unlocked level id, which ResolveNextLevel
// fills in later. Replaying an attempt is a no-op.
func (s *Service) Record(ctx context.Context, a PassedAttempt) (*Outcome, error) {
	t := TransitionFor(a.AttemptID, a.PupilID, a.Level, a.Band, s.now())

	if t.NextLevelNumber > 0 {
		next, err := s.levels.GetLevelByNumber(ctx, t.NextLevelNumber)
		if err != nil {
			s.logger.Warn("next level lookup failed",
				zap.String("attempt_id", a.AttemptID),
				zap.String("pupil_id", a.PupilID),
				zap.Int("next_level", t.NextLevelNumber),
				zap.Error(err))
		} else {
			t.NextLevelID = next.ID
		}
	}

	var (
		applied bool
		err     error
	)
	for attempt := range s.cfg.WriteAttempts {
		applied, err = s.progress.ApplyProgress(ctx, t.Delta())
		if err == nil {
			break
		}
		if ctx.Err() != nil || attempt == s.cfg.WriteAttempts-1 {
			break
		}
		s.logger.Warn("progress write failed, retrying",
			zap.String("attempt_id", a.AttemptID),
			zap.Int("try", attempt+1),
			zap.Error(err))

		select {
		case <-ctx.Done():
		case <-time.After(s.cfg.WriteBackoff):
		}
	}
	if err != nil {
		return nil, &PersistenceError{AttemptID: a.AttemptID, PupilID: a.PupilID, Err: err}
	}

	if applied {
		s.logger.Info("progression applied",
			zap.String("attempt_id", a.AttemptID),
			zap.String("pupil_id", a.PupilID),
			zap.String("level_id", t.LevelID),
			zap.Int("current_level", t.TargetLevel),
			zap.Bool("programme_completed", t.ProgrammeCompleted))
	}
	return &Outcome{Applied: applied, Transition: t}, nil
}

// ResolveNextLevel looks up the level unlocked by an applied attempt whose
// id was missing when progression was recorded, and patches it onto the
// attempt and the progress row. It returns "" for the final level.
func (s *Service) ResolveNextLevel(ctx context.Context, a PassedAttempt) (string, error) {
	t := TransitionFor(a.AttemptID, a.PupilID, a.Level, a.Band, s.now())
	if t.NextLevelNumber == 0 {
		return "", nil
	}
	next, err := s.levels.GetLevelByNumber(ctx, t.NextLevelNumber)
	if err != nil {
		return "", fmt.Errorf("look up level %d: %w", t.NextLevelNumber, err)
	}
	patched, err := s.progress.SetNextLevel(ctx, a.AttemptID, a.PupilID, t.NextLevelNumber, next.ID)
	if err != nil {
		return "", &PersistenceError{AttemptID: a.AttemptID, PupilID: a.PupilID, Err: err}
	}
	if patched {
		s.logger.Info("next level resolved",
			zap.String("attempt_id", a.AttemptID),
			zap.String("pupil_id", a.PupilID),
			zap.String("next_level_id", next.ID))
	}
	return next.ID, nil
}

// Get returns the pupil's progress, or the initial state when the pupil
// has not passed anything yet.
func (s *Service) Get(ctx context.Context, pupilID string) (*Progress, error) {
	rec, err := s.progress.GetProgress(ctx, pupilID)
	var p Progress
	switch {
	case errors.Is(err, store.ErrNotFound):
		p = NewProgress(pupilID)
	case err != nil:
		return nil, fmt.Errorf("get progress: %w", err)
	default:
		p = fromRecord(rec)
	}

	if p.CurrentLevelID == "" {
		if lvl, err := s.levels.GetLevelByNumber(ctx, p.CurrentLevel); err == nil {
			p.CurrentLevelID = lvl.ID
		} else {
			s.logger.Debug("current level id unresolved",
				zap.String("pupil_id", pupilID),
				zap.Int("level", p.CurrentLevel),
				zap.Error(err))
		}
	}
	return &p, nil
}
