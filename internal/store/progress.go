package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// progressRepo implements ProgressRepo.
type progressRepo struct {
	db *sql.DB
}

// claimProgressSQL takes the attempt's progress guard. Zero affected rows
// means another delivery of the same attempt got there first.
const claimProgressSQL = `UPDATE writing_attempts
	SET progress_applied_at = ?, next_level_id = ?
	WHERE id = ? AND progress_applied_at IS NULL`

// upsertProgressSQL merges one passed attempt into the pupil's row. All
// right-hand sides see the pre-update row, so the CASE arms compare the
// old current level. Completed levels and tiers are set unions, the
// current level is a max and programme completion never reverts. The two
// trailing parameters repeat the completed levels and tiers for the union
// subqueries.
const upsertProgressSQL = `INSERT INTO writing_progress (
	pupil_id, current_level, current_tier, current_level_id,
	completed_levels, completed_tiers, programme_completed, programme_completed_at,
	emerging_count, developing_count, secure_count, mastery_count,
	created_at, updated_at
) VALUES (?, ?, ?, ?, json(?), json(?), ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(pupil_id) DO UPDATE SET
	current_level = MAX(writing_progress.current_level, excluded.current_level),
	current_tier = CASE WHEN excluded.current_level > writing_progress.current_level
		THEN excluded.current_tier ELSE writing_progress.current_tier END,
	current_level_id = CASE WHEN excluded.current_level > writing_progress.current_level
		THEN excluded.current_level_id ELSE writing_progress.current_level_id END,
	completed_levels = (
		SELECT json_group_array(value) FROM (
			SELECT value FROM json_each(writing_progress.completed_levels)
			UNION
			SELECT value FROM json_each(?)
			ORDER BY value
		)
	),
	completed_tiers = (
		SELECT json_group_array(value) FROM (
			SELECT value FROM json_each(writing_progress.completed_tiers)
			UNION
			SELECT value FROM json_each(?)
			ORDER BY value
		)
	),
	programme_completed = MAX(writing_progress.programme_completed, excluded.programme_completed),
	programme_completed_at = COALESCE(writing_progress.programme_completed_at, excluded.programme_completed_at),
	emerging_count = writing_progress.emerging_count + excluded.emerging_count,
	developing_count = writing_progress.developing_count + excluded.developing_count,
	secure_count = writing_progress.secure_count + excluded.secure_count,
	mastery_count = writing_progress.mastery_count + excluded.mastery_count,
	updated_at = excluded.updated_at`

func (r *progressRepo) ApplyProgress(ctx context.Context, d ProgressDelta) (bool, error) {
	levels, err := json.Marshal([]string{d.LevelID})
	if err != nil {
		return false, fmt.Errorf("marshal completed levels: %w", err)
	}
	tiers := []int{}
	if d.CompletedTier > 0 {
		tiers = append(tiers, d.CompletedTier)
	}
	tiersJSON, err := json.Marshal(tiers)
	if err != nil {
		return false, fmt.Errorf("marshal completed tiers: %w", err)
	}

	var completedAt sql.NullInt64
	if d.ProgrammeCompleted {
		completedAt = sql.NullInt64{Int64: millis(d.At), Valid: true}
	}

	bands := map[string]int{}
	bands[d.Band] = 1
	at := millis(d.At)

	applied := false
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, claimProgressSQL, at, d.NextLevelID, d.AttemptID)
		if err != nil {
			return fmt.Errorf("claim progress guard: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("claim progress guard: %w", err)
		}
		if n == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, upsertProgressSQL,
			d.PupilID, d.CurrentLevel, d.CurrentTier, d.CurrentLevelID,
			string(levels), string(tiersJSON), boolInt(d.ProgrammeCompleted), completedAt,
			bands[BandEmerging], bands[BandDeveloping], bands[BandSecure], bands[BandMastery],
			at, at,
			string(levels), string(tiersJSON),
		)
		if err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *progressRepo) SetNextLevel(ctx context.Context, attemptID, pupilID string, nextLevel int, nextLevelID string) (bool, error) {
	patched := false
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query, args := builder().Update(attemptsTable).
			Set("next_level_id", nextLevelID).
			Where(entsql.And(
				entsql.EQ("id", attemptID),
				entsql.NotNull("progress_applied_at"),
				entsql.EQ("next_level_id", ""),
			)).
			Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("set attempt next level: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("set attempt next level: %w", err)
		}
		patched = n > 0

		query, args = builder().Update("writing_progress").
			Set("current_level_id", nextLevelID).
			Where(entsql.And(
				entsql.EQ("pupil_id", pupilID),
				entsql.EQ("current_level", nextLevel),
				entsql.EQ("current_level_id", ""),
			)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("set current level id: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return patched, nil
}

var progressColumns = []string{
	"pupil_id", "current_level", "current_tier", "current_level_id",
	"completed_levels", "completed_tiers", "programme_completed", "programme_completed_at",
	"emerging_count", "developing_count", "secure_count", "mastery_count",
	"created_at", "updated_at",
}

func (r *progressRepo) GetProgress(ctx context.Context, pupilID string) (*ProgressRecord, error) {
	query, args := builder().Select(progressColumns...).
		From(entsql.Table("writing_progress")).
		Where(entsql.EQ("pupil_id", pupilID)).
		Query()

	var (
		p                  ProgressRecord
		levels, tiers      string
		completed          int
		completedAt        sql.NullInt64
		em, dev, sec, mast int
		created, updated   int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.PupilID, &p.CurrentLevel, &p.CurrentTier, &p.CurrentLevelID,
		&levels, &tiers, &completed, &completedAt,
		&em, &dev, &sec, &mast, &created, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}

	if err := json.Unmarshal([]byte(levels), &p.CompletedLevels); err != nil {
		return nil, fmt.Errorf("decode completed levels: %w", err)
	}
	if err := json.Unmarshal([]byte(tiers), &p.CompletedTiers); err != nil {
		return nil, fmt.Errorf("decode completed tiers: %w", err)
	}
	p.ProgrammeCompleted = completed != 0
	p.ProgrammeCompletedAt = nullMillis(completedAt)
	p.BandCounts = map[string]int{
		BandEmerging:   em,
		BandDeveloping: dev,
		BandSecure:     sec,
		BandMastery:    mast,
	}
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}
