package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

var _ repository.ResumeRepository = (*DB)(nil)

// UpsertResume replaces the user's stored resume.
func (db *DB) UpsertResume(ctx context.Context, resume *model.Resume) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO resumes (user_id, data, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		resume.UserID, string(resume.Data), resume.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting resume for %s: %w", resume.UserID, err)
	}
	return nil
}

func (db *DB) GetResume(ctx context.Context, userID string) (*model.Resume, error) {
	var (
		r    = model.Resume{UserID: userID}
		data string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT data, created_at FROM resumes WHERE user_id = ?`, userID,
	).Scan(&data, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("resume", userID)
		}
		return nil, fmt.Errorf("sqlite: getting resume for %s: %w", userID, err)
	}
	r.Data = []byte(data)
	return &r, nil
}
