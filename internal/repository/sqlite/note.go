package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

var _ repository.NoteRepository = (*DB)(nil)

const noteColumns = `id, user_id, type, question_id, note_name, content, created_at, updated_at`

func (db *DB) CreateNote(ctx context.Context, note *model.Note) error {
	now := time.Now().UTC()
	note.ID = xid.New().String()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.UserID,
		string(note.Type),
		nullString(note.QuestionID),
		nullString(note.Name),
		note.Content,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting note: %w", err)
	}
	return nil
}

func (db *DB) GetNote(ctx context.Context, id string) (*model.Note, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("note", id)
		}
		return nil, fmt.Errorf("sqlite: getting note %s: %w", id, err)
	}
	return n, nil
}

// UpdateNote writes content and name. Type, owner and question never change.
func (db *DB) UpdateNote(ctx context.Context, note *model.Note) error {
	note.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE notes SET content = ?, note_name = ?, updated_at = ? WHERE id = ?`,
		note.Content, nullString(note.Name), note.UpdatedAt, note.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating note %s: %w", note.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("note", note.ID)
	}
	return nil
}

func (db *DB) DeleteNote(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting note %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("note", id)
	}
	return nil
}

// ListNotes returns the user's notes of one type, most recently edited first.
func (db *DB) ListNotes(ctx context.Context, userID string, noteType model.NoteType) ([]model.Note, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? AND type = ? ORDER BY updated_at DESC, id DESC`,
		userID, string(noteType))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notes: %w", err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notes: %w", err)
	}
	return notes, nil
}

// QuestionNoteIDs maps question id -> note id. When a user has several notes
// on one question the oldest wins.
func (db *DB) QuestionNoteIDs(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT question_id, id FROM notes
		 WHERE user_id = ? AND type = 'question' AND question_id IS NOT NULL
		 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing question notes: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var qid, nid string
		if err := rows.Scan(&qid, &nid); err != nil {
			return nil, fmt.Errorf("sqlite: scanning question note: %w", err)
		}
		out[qid] = nid // later rows are older and overwrite
	}
	return out, rows.Err()
}

func scanNote(row rowScanner) (*model.Note, error) {
	var (
		n          model.Note
		noteType   string
		questionID sql.NullString
		name       sql.NullString
	)
	if err := row.Scan(&n.ID, &n.UserID, &noteType, &questionID, &name, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.Type = model.NoteType(noteType)
	n.QuestionID = questionID.String
	n.Name = name.String
	return &n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
