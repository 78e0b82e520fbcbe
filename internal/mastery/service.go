package mastery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/wordsmith/internal/store"
)

// Service records concept observations and reads per-pupil mastery.
type Service struct {
	repo   store.MasteryRepo
	window int
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a mastery service keeping window recent outcomes per
// concept. A non-positive window uses DefaultWindow.
func NewService(repo store.MasteryRepo, window int, logger *zap.Logger) *Service {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, window: window, logger: logger, now: time.Now}
}

// Record merges an assessed attempt's observations. It returns the trend
// changes it caused; replaying an attempt records nothing.
func (s *Service) Record(ctx context.Context, attemptID, pupilID string, obs []store.ConceptObservation) ([]TrendChange, error) {
	before, err := s.trends(ctx, pupilID)
	if err != nil {
		return nil, err
	}

	applied, err := s.repo.ApplyObservations(ctx, attemptID, pupilID, obs, s.window, s.now())
	if err != nil {
		return nil, fmt.Errorf("apply observations: %w", err)
	}
	if !applied {
		return nil, nil
	}

	after, err := s.List(ctx, pupilID)
	if err != nil {
		return nil, err
	}

	var changes []TrendChange
	for _, cm := range after {
		from, ok := before[cm.Concept]
		if !ok {
			from = TrendNew
		}
		if from != cm.Trend {
			changes = append(changes, TrendChange{Concept: cm.Concept, From: from, To: cm.Trend})
		}
	}
	for _, c := range changes {
		s.logger.Info("concept trend changed",
			zap.String("pupil_id", pupilID),
			zap.String("concept", c.Concept),
			zap.String("from", string(c.From)),
			zap.String("to", string(c.To)))
	}
	return changes, nil
}

// List returns every concept the pupil has been observed on.
func (s *Service) List(ctx context.Context, pupilID string) ([]ConceptMastery, error) {
	recs, err := s.repo.ListConceptMastery(ctx, pupilID)
	if err != nil {
		return nil, fmt.Errorf("list concept mastery: %w", err)
	}
	out := make([]ConceptMastery, 0, len(recs))
	for _, r := range recs {
		out = append(out, fromRecord(r))
	}
	return out, nil
}

func (s *Service) trends(ctx context.Context, pupilID string) (map[string]Trend, error) {
	list, err := s.List(ctx, pupilID)
	if err != nil {
		return nil, err
	}
	m := make(map[string]Trend, len(list))
	for _, cm := range list {
		m[cm.Concept] = cm.Trend
	}
	return m, nil
}
