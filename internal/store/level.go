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

const levelsTable = "writing_levels"

var levelColumns = []string{
	"id", "number", "tier", "activity_name", "prompt_title", "prompt_instructions",
	"target_concepts", "rubric", "passing_threshold", "tier_finale", "programme_finale", "milestone",
}

// levelRepo implements LevelRepo.
type levelRepo struct {
	db *sql.DB
}

const upsertLevelSQL = `INSERT INTO writing_levels (
	id, number, tier, activity_name, prompt_title, prompt_instructions,
	target_concepts, rubric, passing_threshold, tier_finale, programme_finale, milestone
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	number = excluded.number,
	tier = excluded.tier,
	activity_name = excluded.activity_name,
	prompt_title = excluded.prompt_title,
	prompt_instructions = excluded.prompt_instructions,
	target_concepts = excluded.target_concepts,
	rubric = excluded.rubric,
	passing_threshold = excluded.passing_threshold,
	tier_finale = excluded.tier_finale,
	programme_finale = excluded.programme_finale,
	milestone = excluded.milestone`

func (r *levelRepo) PublishLevels(ctx context.Context, version string, levels []LevelRecord) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, l := range levels {
			concepts, err := json.Marshal(nonNilStrings(l.TargetConcepts))
			if err != nil {
				return fmt.Errorf("marshal concepts for %s: %w", l.ID, err)
			}
			rubric := l.Rubric
			if len(rubric) == 0 {
				rubric = json.RawMessage(`{}`)
			}
			_, err = tx.ExecContext(ctx, upsertLevelSQL,
				l.ID, l.Number, l.Tier, l.ActivityName, l.PromptTitle, l.PromptInstructions,
				string(concepts), string(rubric), l.PassingThreshold,
				boolInt(l.TierFinale), boolInt(l.ProgrammeFinale), boolInt(l.Milestone),
			)
			if err != nil {
				return fmt.Errorf("upsert level %s: %w", l.ID, err)
			}
		}

		_, err := tx.ExecContext(ctx, `INSERT INTO catalogue_meta (id, version, published_at) VALUES (1, ?, ?)
			ON CONFLICT(id) DO UPDATE SET version = excluded.version, published_at = excluded.published_at`,
			version, millis(time.Now()))
		if err != nil {
			return fmt.Errorf("record catalogue version: %w", err)
		}
		return nil
	})
}

func (r *levelRepo) CatalogueVersion(ctx context.Context) (string, error) {
	query, args := builder().Select("version").
		From(entsql.Table("catalogue_meta")).
		Where(entsql.EQ("id", 1)).
		Query()

	var v string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query catalogue version: %w", err)
	}
	return v, nil
}

func (r *levelRepo) GetLevel(ctx context.Context, id string) (*LevelRecord, error) {
	return r.getOne(ctx, entsql.EQ("id", id))
}

func (r *levelRepo) GetLevelByNumber(ctx context.Context, number int) (*LevelRecord, error) {
	return r.getOne(ctx, entsql.EQ("number", number))
}

func (r *levelRepo) getOne(ctx context.Context, p *entsql.Predicate) (*LevelRecord, error) {
	query, args := builder().Select(levelColumns...).
		From(entsql.Table(levelsTable)).
		Where(p).
		Query()

	l, err := scanLevel(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query level: %w", err)
	}
	return l, nil
}

func (r *levelRepo) ListLevels(ctx context.Context) ([]LevelRecord, error) {
	query, args := builder().Select(levelColumns...).
		From(entsql.Table(levelsTable)).
		OrderBy("number").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query levels: %w", err)
	}
	defer rows.Close()

	var out []LevelRecord
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLevel(row rowScanner) (*LevelRecord, error) {
	var (
		l                          LevelRecord
		concepts, rubric           string
		tierFin, progFin, milstone int
	)
	err := row.Scan(&l.ID, &l.Number, &l.Tier, &l.ActivityName, &l.PromptTitle, &l.PromptInstructions,
		&concepts, &rubric, &l.PassingThreshold, &tierFin, &progFin, &milstone)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(concepts), &l.TargetConcepts); err != nil {
		return nil, fmt.Errorf("decode target concepts for %s: %w", l.ID, err)
	}
	l.Rubric = json.RawMessage(rubric)
	l.TierFinale = tierFin != 0
	l.ProgrammeFinale = progFin != 0
	l.Milestone = milstone != 0
	return &l, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
