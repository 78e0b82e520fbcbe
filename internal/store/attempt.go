package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const attemptsTable = "writing_attempts"

var attemptColumns = []string{
	"id", "pupil_id", "assignment_id", "level_id", "text", "word_count", "status",
	"score", "total", "percentage", "passed", "performance_band", "error_patterns",
	"assessment", "next_level_id", "progress_applied_at", "mastery_applied_at",
	"created_at", "updated_at",
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// attemptRepo implements AttemptRepo.
type attemptRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *attemptRepo) SaveDraft(ctx context.Context, a AttemptRecord) (*AttemptRecord, error) {
	var out *AttemptRecord
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		existing, err := getAttempt(ctx, tx, a.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			a.Status = AttemptDraft
			if err := r.insert(ctx, tx, a); err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.Status != AttemptDraft:
			return ErrAttemptFinal
		default:
			if err := r.updateText(ctx, tx, a, AttemptDraft); err != nil {
				return err
			}
		}
		out, err = getAttempt(ctx, tx, a.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attemptRepo) MarkSubmitted(ctx context.Context, a AttemptRecord) (*AttemptRecord, error) {
	var out *AttemptRecord
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		existing, err := getAttempt(ctx, tx, a.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			a.Status = AttemptSubmitted
			if err := r.insert(ctx, tx, a); err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.Status == AttemptAssessed:
			out = existing
			return nil
		default:
			if err := r.updateText(ctx, tx, a, AttemptSubmitted); err != nil {
				return err
			}
		}
		out, err = getAttempt(ctx, tx, a.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attemptRepo) RecordAssessment(ctx context.Context, id string, res AssessmentResult) (*AttemptRecord, error) {
	patterns, err := json.Marshal(nonNilStrings(res.ErrorPatterns))
	if err != nil {
		return nil, fmt.Errorf("marshal error patterns: %w", err)
	}

	var out *AttemptRecord
	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		query, args := builder().Update(attemptsTable).
			Set("score", res.Score).
			Set("total", res.Total).
			Set("percentage", res.Percentage).
			Set("passed", boolInt(res.Passed)).
			Set("performance_band", res.PerformanceBand).
			Set("error_patterns", string(patterns)).
			Set("assessment", string(res.Assessment)).
			Set("status", string(AttemptAssessed)).
			Set("updated_at", millis(r.now())).
			Where(entsql.And(
				entsql.EQ("id", id),
				entsql.NEQ("status", string(AttemptAssessed)),
			)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("record assessment: %w", err)
		}
		// An already assessed attempt keeps its first result.
		var err error
		out, err = getAttempt(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attemptRepo) GetAttempt(ctx context.Context, id string) (*AttemptRecord, error) {
	return getAttempt(ctx, r.db, id)
}

func (r *attemptRepo) ListAttempts(ctx context.Context, pupilID string, limit int) ([]AttemptRecord, error) {
	sel := builder().Select(attemptColumns...).
		From(entsql.Table(attemptsTable)).
		Where(entsql.EQ("pupil_id", pupilID)).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	return r.list(ctx, sel)
}

func (r *attemptRepo) PendingProgress(ctx context.Context, limit int) ([]AttemptRecord, error) {
	sel := builder().Select(attemptColumns...).
		From(entsql.Table(attemptsTable)).
		Where(entsql.And(
			entsql.EQ("status", string(AttemptAssessed)),
			entsql.EQ("passed", 1),
			entsql.IsNull("progress_applied_at"),
		)).
		OrderBy("created_at")
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	return r.list(ctx, sel)
}

func (r *attemptRepo) PendingMastery(ctx context.Context, limit int) ([]AttemptRecord, error) {
	sel := builder().Select(attemptColumns...).
		From(entsql.Table(attemptsTable)).
		Where(entsql.And(
			entsql.EQ("status", string(AttemptAssessed)),
			entsql.IsNull("mastery_applied_at"),
		)).
		OrderBy("created_at")
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	return r.list(ctx, sel)
}

func (r *attemptRepo) MissingNextLevel(ctx context.Context, limit int) ([]AttemptRecord, error) {
	below := builder().Select("id").
		From(entsql.Table(levelsTable)).
		Where(entsql.EQ("programme_finale", 0))
	sel := builder().Select(attemptColumns...).
		From(entsql.Table(attemptsTable)).
		Where(entsql.And(
			entsql.EQ("status", string(AttemptAssessed)),
			entsql.EQ("passed", 1),
			entsql.NotNull("progress_applied_at"),
			entsql.EQ("next_level_id", ""),
			entsql.In("level_id", below),
		)).
		OrderBy("created_at")
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	return r.list(ctx, sel)
}

func (r *attemptRepo) list(ctx context.Context, sel *entsql.Selector) ([]AttemptRecord, error) {
	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *attemptRepo) insert(ctx context.Context, tx *sql.Tx, a AttemptRecord) error {
	now := millis(r.now())
	query, args := builder().Insert(attemptsTable).
		Columns("id", "pupil_id", "assignment_id", "level_id", "text", "word_count", "status", "created_at", "updated_at").
		Values(a.ID, a.PupilID, a.AssignmentID, a.LevelID, a.Text, a.WordCount, string(a.Status), now, now).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (r *attemptRepo) updateText(ctx context.Context, tx *sql.Tx, a AttemptRecord, status AttemptStatus) error {
	query, args := builder().Update(attemptsTable).
		Set("assignment_id", a.AssignmentID).
		Set("level_id", a.LevelID).
		Set("text", a.Text).
		Set("word_count", a.WordCount).
		Set("status", string(status)).
		Set("updated_at", millis(r.now())).
		Where(entsql.EQ("id", a.ID)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	return nil
}

func getAttempt(ctx context.Context, q querier, id string) (*AttemptRecord, error) {
	query, args := builder().Select(attemptColumns...).
		From(entsql.Table(attemptsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	a, err := scanAttempt(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query attempt: %w", err)
	}
	return a, nil
}

func scanAttempt(row rowScanner) (*AttemptRecord, error) {
	var (
		a                  AttemptRecord
		status             string
		passed             int
		patterns           string
		assessment         sql.NullString
		progressAt, mastAt sql.NullInt64
		created, updated   int64
	)
	err := row.Scan(&a.ID, &a.PupilID, &a.AssignmentID, &a.LevelID, &a.Text, &a.WordCount, &status,
		&a.Score, &a.Total, &a.Percentage, &passed, &a.PerformanceBand, &patterns,
		&assessment, &a.NextLevelID, &progressAt, &mastAt, &created, &updated)
	if err != nil {
		return nil, err
	}
	a.Status = AttemptStatus(status)
	a.Passed = passed != 0
	if err := json.Unmarshal([]byte(patterns), &a.ErrorPatterns); err != nil {
		return nil, fmt.Errorf("decode error patterns for %s: %w", a.ID, err)
	}
	if assessment.Valid && assessment.String != "" {
		a.Assessment = json.RawMessage(assessment.String)
	}
	a.ProgressAppliedAt = nullMillis(progressAt)
	a.MasteryAppliedAt = nullMillis(mastAt)
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return &a, nil
}
