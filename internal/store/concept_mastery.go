package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// masteryRepo implements MasteryRepo.
type masteryRepo struct {
	db *sql.DB
}

const claimMasterySQL = `UPDATE writing_attempts
	SET mastery_applied_at = ?
	WHERE id = ? AND mastery_applied_at IS NULL`

// upsertConceptSQL adds one observation. recent keeps the newest outcomes
// as a string of '1'/'0', trimmed from the left to the window size.
const upsertConceptSQL = `INSERT INTO concept_mastery (pupil_id, concept, uses, correct, recent, updated_at)
VALUES (?, ?, 1, ?, ?, ?)
ON CONFLICT(pupil_id, concept) DO UPDATE SET
	uses = concept_mastery.uses + 1,
	correct = concept_mastery.correct + excluded.correct,
	recent = substr(concept_mastery.recent || excluded.recent, -?),
	updated_at = excluded.updated_at`

func (r *masteryRepo) ApplyObservations(ctx context.Context, attemptID, pupilID string, obs []ConceptObservation, window int, at time.Time) (bool, error) {
	if window < 1 {
		window = 1
	}

	applied := false
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, claimMasterySQL, millis(at), attemptID)
		if err != nil {
			return fmt.Errorf("claim mastery guard: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("claim mastery guard: %w", err)
		}
		if n == 0 {
			return nil
		}

		for _, o := range obs {
			correct, mark := 0, "0"
			if o.Correct {
				correct, mark = 1, "1"
			}
			_, err := tx.ExecContext(ctx, upsertConceptSQL,
				pupilID, o.Concept, correct, mark, millis(at), window)
			if err != nil {
				return fmt.Errorf("upsert concept %s: %w", o.Concept, err)
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *masteryRepo) ListConceptMastery(ctx context.Context, pupilID string) ([]ConceptMasteryRecord, error) {
	query, args := builder().Select("pupil_id", "concept", "uses", "correct", "recent", "updated_at").
		From(entsql.Table("concept_mastery")).
		Where(entsql.EQ("pupil_id", pupilID)).
		OrderBy("concept").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query concept mastery: %w", err)
	}
	defer rows.Close()

	var out []ConceptMasteryRecord
	for rows.Next() {
		var (
			m       ConceptMasteryRecord
			updated int64
		)
		if err := rows.Scan(&m.PupilID, &m.Concept, &m.Uses, &m.Correct, &m.Recent, &updated); err != nil {
			return nil, fmt.Errorf("scan concept mastery: %w", err)
		}
		m.UpdatedAt = fromMillis(updated)
		out = append(out, m)
	}
	return out, rows.Err()
}
