package curriculum

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/abhisek/wordsmith/internal/store"
)

// DowngradeError is returned when a catalogue older than the published one
// is offered for publishing.
type DowngradeError struct {
	Published string
	Offered   string
}

func (e *DowngradeError) Error() string {
	return fmt.Sprintf("catalogue version %s is older than published version %s", e.Offered, e.Published)
}

// Publish validates c and writes it to the store. Republishing the same
// version is allowed; an older version is rejected with DowngradeError.
func Publish(ctx context.Context, repo store.LevelRepo, c *Catalogue) error {
	if err := c.Validate(); err != nil {
		return err
	}

	published, err := repo.CatalogueVersion(ctx)
	if err != nil {
		return fmt.Errorf("read catalogue version: %w", err)
	}
	if published != "" {
		if pv := canonical(published); pv != "" && semver.Compare(canonical(c.Version), pv) < 0 {
			return &DowngradeError{Published: published, Offered: c.Version}
		}
	}

	if err := repo.PublishLevels(ctx, c.Version, c.Levels); err != nil {
		return fmt.Errorf("publish catalogue %s: %w", c.Version, err)
	}
	return nil
}

// EnsurePublished publishes the built-in catalogue when the store has none.
// It reports whether anything was written.
func EnsurePublished(ctx context.Context, repo store.LevelRepo, logger *zap.Logger) (bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	published, err := repo.CatalogueVersion(ctx)
	if err != nil {
		return false, fmt.Errorf("read catalogue version: %w", err)
	}
	if published != "" {
		return false, nil
	}

	c := Default()
	if err := Publish(ctx, repo, c); err != nil {
		return false, err
	}
	logger.Info("published default catalogue",
		zap.String("version", c.Version),
		zap.Int("levels", len(c.Levels)))
	return true, nil
}
