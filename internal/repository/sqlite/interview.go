package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

var _ repository.InterviewRepository = (*DB)(nil)

const interviewColumns = `id, user_id, job_role, job_description, experience_level, questions,
	confidence, eye_contact, final_score, created_at, updated_at`

// CreateInterview stores a new interview. Questions without an id get one.
func (db *DB) CreateInterview(ctx context.Context, iv *model.Interview) error {
	now := time.Now().UTC()
	iv.ID = xid.New().String()
	iv.CreatedAt = now
	iv.UpdatedAt = now
	for i := range iv.Questions {
		if iv.Questions[i].ID == "" {
			iv.Questions[i].ID = xid.New().String()
		}
	}

	questions, err := json.Marshal(iv.Questions)
	if err != nil {
		return fmt.Errorf("sqlite: encoding interview questions: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO interviews (`+interviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		iv.ID, iv.UserID, iv.JobRole, iv.JobDescription, iv.ExperienceLevel, string(questions),
		iv.Confidence, iv.EyeContact, iv.FinalScore, iv.CreatedAt, iv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting interview: %w", err)
	}
	return nil
}

func (db *DB) GetInterview(ctx context.Context, id string) (*model.Interview, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = ?`, id)
	iv, err := scanInterview(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("interview", id)
		}
		return nil, fmt.Errorf("sqlite: getting interview %s: %w", id, err)
	}
	return iv, nil
}

// ListInterviews returns the user's interviews, newest first.
func (db *DB) ListInterviews(ctx context.Context, userID string) ([]model.Interview, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing interviews: %w", err)
	}
	defer rows.Close()

	out := []model.Interview{}
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning interview: %w", err)
		}
		out = append(out, *iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating interviews: %w", err)
	}
	return out, nil
}

// ModifyInterview reads the interview, applies modify and writes the
// questions, metrics and final score back, all in one transaction. Concurrent
// modifications of the same interview are applied one after the other, each
// to the other's result. An error from modify aborts without writing.
func (db *DB) ModifyInterview(ctx context.Context, id string, modify func(iv *model.Interview) error) (*model.Interview, error) {
	var iv *model.Interview
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		row := tx.QueryRowContext(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = ?`, id)
		iv, err = scanInterview(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("interview", id)
			}
			return fmt.Errorf("sqlite: getting interview %s: %w", id, err)
		}
		if err := modify(iv); err != nil {
			return err
		}

		iv.UpdatedAt = time.Now().UTC()
		questions, err := json.Marshal(iv.Questions)
		if err != nil {
			return fmt.Errorf("sqlite: encoding interview questions: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE interviews SET questions = ?, confidence = ?, eye_contact = ?, final_score = ?, updated_at = ?
			 WHERE id = ?`,
			string(questions), iv.Confidence, iv.EyeContact, iv.FinalScore, iv.UpdatedAt, iv.ID,
		); err != nil {
			return fmt.Errorf("sqlite: updating interview %s: %w", iv.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return iv, nil
}

// SetInterviewMetrics updates only the confidence and eye-contact columns.
func (db *DB) SetInterviewMetrics(ctx context.Context, id string, confidence, eyeContact int) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE interviews SET confidence = ?, eye_contact = ?, updated_at = ? WHERE id = ?`,
		confidence, eyeContact, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating metrics of interview %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("interview", id)
	}
	return nil
}

func (db *DB) DeleteInterview(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM interviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting interview %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("interview", id)
	}
	return nil
}

func scanInterview(row rowScanner) (*model.Interview, error) {
	var (
		iv        model.Interview
		questions string
	)
	err := row.Scan(&iv.ID, &iv.UserID, &iv.JobRole, &iv.JobDescription, &iv.ExperienceLevel, &questions,
		&iv.Confidence, &iv.EyeContact, &iv.FinalScore, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(questions), &iv.Questions); err != nil {
		return nil, fmt.Errorf("decoding questions of interview %s: %w", iv.ID, err)
	}
	return &iv, nil
}
