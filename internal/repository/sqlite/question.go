package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

var _ repository.QuestionRepository = (*DB)(nil)

const questionColumns = `id, title, platform, url, difficulty, topic, tags`

// FindOrCreateQuestion deduplicates by exact title. The bool result is true
// when a new row was inserted.
func (db *DB) FindOrCreateQuestion(ctx context.Context, q *model.Question) (*model.Question, bool, error) {
	existing, err := db.questionByTitle(ctx, q.Title)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("sqlite: finding question %q: %w", q.Title, err)
	}

	created := *q
	created.ID = xid.New().String()
	if created.Tags == nil {
		created.Tags = []string{}
	}
	tags, err := json.Marshal(created.Tags)
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO questions (`+questionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.Title, created.Platform, created.URL, created.Difficulty, created.Topic, string(tags),
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Another import inserted the same title first.
			existing, err := db.questionByTitle(ctx, q.Title)
			if err != nil {
				return nil, false, fmt.Errorf("sqlite: re-reading question %q: %w", q.Title, err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("sqlite: inserting question %q: %w", q.Title, err)
	}
	return &created, true, nil
}

func (db *DB) questionByTitle(ctx context.Context, title string) (*model.Question, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE title = ?`, title)
	return scanQuestion(row)
}

func (db *DB) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("question", id)
		}
		return nil, fmt.Errorf("sqlite: getting question %s: %w", id, err)
	}
	return q, nil
}

// GetQuestionsByIDs loads the given questions keyed by id. Unknown ids are
// simply absent from the map.
func (db *DB) GetQuestionsByIDs(ctx context.Context, ids []string) (map[string]*model.Question, error) {
	out := make(map[string]*model.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning question: %w", err)
		}
		out[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating questions: %w", err)
	}
	return out, nil
}

func scanQuestion(row rowScanner) (*model.Question, error) {
	var (
		q    model.Question
		tags string
	)
	if err := row.Scan(&q.ID, &q.Title, &q.Platform, &q.URL, &q.Difficulty, &q.Topic, &tags); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &q.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of question %s: %w", q.ID, err)
	}
	return &q, nil
}
