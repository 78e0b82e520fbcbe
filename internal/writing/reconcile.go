package writing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/wordsmith/internal/mastery"
	"github.com/abhisek/wordsmith/internal/progression"
	"github.com/abhisek/wordsmith/internal/store"
)

// ReconcileBatch caps the attempts handled per kind in one pass.
const ReconcileBatch = 100

// ReconcilePending applies progression for assessed, passed attempts whose
// progress write never landed, and records mastery for assessed attempts
// without observations. Applied attempts whose unlocked level id was never
// resolved get it filled in. The store guards make it safe to run alongside
// live submissions.
func (s *Service) ReconcilePending(ctx context.Context) (ReconcileReport, error) {
	var rep ReconcileReport
	levels := make(map[string]*store.LevelRecord)

	pending, err := s.attempts.PendingProgress(ctx, ReconcileBatch)
	if err != nil {
		return rep, fmt.Errorf("list pending progress: %w", err)
	}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		a := &pending[i]
		err := s.reconcileProgress(ctx, levels, a)
		s.metrics.ObserveReconciled("progress", err == nil)
		if err != nil {
			rep.Failed++
			s.logger.Warn("reconcile progress failed", zap.String("attempt_id", a.ID), zap.Error(err))
			continue
		}
		rep.Progress++
	}

	pending, err = s.attempts.MissingNextLevel(ctx, ReconcileBatch)
	if err != nil {
		return rep, fmt.Errorf("list missing next level: %w", err)
	}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		a := &pending[i]
		err := s.reconcileNextLevel(ctx, levels, a)
		s.metrics.ObserveReconciled("next_level", err == nil)
		if err != nil {
			rep.Failed++
			s.logger.Warn("reconcile next level failed", zap.String("attempt_id", a.ID), zap.Error(err))
			continue
		}
		rep.NextLevel++
	}

	if s.mastery != nil {
		pending, err = s.attempts.PendingMastery(ctx, ReconcileBatch)
		if err != nil {
			return rep, fmt.Errorf("list pending mastery: %w", err)
		}
		for i := range pending {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			a := &pending[i]
			err := s.reconcileMastery(ctx, levels, a)
			s.metrics.ObserveReconciled("mastery", err == nil)
			if err != nil {
				rep.Failed++
				s.logger.Warn("reconcile mastery failed", zap.String("attempt_id", a.ID), zap.Error(err))
				continue
			}
			rep.Mastery++
		}
	}

	if rep != (ReconcileReport{}) {
		s.logger.Info("reconciled pending attempts",
			zap.Int("progress", rep.Progress),
			zap.Int("mastery", rep.Mastery),
			zap.Int("next_level", rep.NextLevel),
			zap.Int("failed", rep.Failed))
	}
	return rep, nil
}

func (s *Service) reconcileProgress(ctx context.Context, levels map[string]*store.LevelRecord, a *store.AttemptRecord) error {
	level, err := s.cachedLevel(ctx, levels, a.LevelID)
	if err != nil {
		return err
	}
	_, err = s.progression.Record(ctx, progression.PassedAttempt{
		AttemptID: a.ID,
		PupilID:   a.PupilID,
		Level:     level,
		Band:      a.PerformanceBand,
	})
	return err
}

func (s *Service) reconcileNextLevel(ctx context.Context, levels map[string]*store.LevelRecord, a *store.AttemptRecord) error {
	level, err := s.cachedLevel(ctx, levels, a.LevelID)
	if err != nil {
		return err
	}
	_, err = s.progression.ResolveNextLevel(ctx, progression.PassedAttempt{
		AttemptID: a.ID,
		PupilID:   a.PupilID,
		Level:     level,
		Band:      a.PerformanceBand,
	})
	return err
}

func (s *Service) reconcileMastery(ctx context.Context, levels map[string]*store.LevelRecord, a *store.AttemptRecord) error {
	level, err := s.cachedLevel(ctx, levels, a.LevelID)
	if err != nil {
		return err
	}
	var improvements []string
	if stored, err := decodeAssessment(a); err == nil {
		improvements = stored.DetailedAnalysis.AreasForImprovement
	}
	obs := mastery.Observations(level.TargetConcepts, a.ErrorPatterns, improvements)
	_, err = s.mastery.Record(ctx, a.ID, a.PupilID, obs)
	return err
}

func (s *Service) cachedLevel(ctx context.Context, cache map[string]*store.LevelRecord, id string) (*store.LevelRecord, error) {
	if l, ok := cache[id]; ok {
		return l, nil
	}
	l, err := s.level(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = l
	return l, nil
}
