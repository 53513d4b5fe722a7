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

var _ repository.SheetRepository = (*DB)(nil)

// CreateSheet inserts the sheet and its initial question list (if any).
func (db *DB) CreateSheet(ctx context.Context, sheet *model.Sheet) error {
	now := time.Now().UTC()
	sheet.ID = xid.New().String()
	sheet.CreatedAt = now
	sheet.UpdatedAt = now
	if sheet.Visibility == "" {
		sheet.Visibility = model.VisibilityPublic
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sheets (id, title, description, author_id, visibility, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sheet.ID,
			sheet.Title,
			sheet.Description,
			sheet.AuthorID,
			string(sheet.Visibility),
			sheet.CreatedAt,
			sheet.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting sheet %q: %w", sheet.Title, err)
		}
		if _, err := appendQuestionsTx(ctx, tx, sheet.ID, sheet.QuestionIDs); err != nil {
			return err
		}
		return nil
	})
}

// GetSheet returns the sheet with its question ids in sheet order.
func (db *DB) GetSheet(ctx context.Context, id string) (*model.Sheet, error) {
	var (
		s          model.Sheet
		visibility string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, description, author_id, visibility, created_at, updated_at
		 FROM sheets WHERE id = ?`, id,
	).Scan(&s.ID, &s.Title, &s.Description, &s.AuthorID, &visibility, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("sheet", id)
		}
		return nil, fmt.Errorf("sqlite: getting sheet %s: %w", id, err)
	}
	s.Visibility = model.Visibility(visibility)

	ids, err := db.sheetQuestionIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	s.QuestionIDs = ids
	return &s, nil
}

func (db *DB) sheetQuestionIDs(ctx context.Context, sheetID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT question_id FROM sheet_questions WHERE sheet_id = ? ORDER BY position`, sheetID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing questions of sheet %s: %w", sheetID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning sheet question: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListSheets returns public sheets plus viewerID's private ones, newest first.
func (db *DB) ListSheets(ctx context.Context, viewerID string) ([]repository.SheetSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT s.id, s.title, s.description, s.author_id, s.visibility, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM sheet_questions sq WHERE sq.sheet_id = s.id)
		 FROM sheets s
		 WHERE s.visibility <> 'Private' OR s.author_id = ?
		 ORDER BY s.created_at DESC, s.id DESC`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sheets: %w", err)
	}
	defer rows.Close()

	sheets := []repository.SheetSummary{}
	for rows.Next() {
		var (
			sum        repository.SheetSummary
			visibility string
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Description, &sum.AuthorID, &visibility,
			&sum.CreatedAt, &sum.UpdatedAt, &sum.TotalQuestions); err != nil {
			return nil, fmt.Errorf("sqlite: scanning sheet: %w", err)
		}
		sum.Visibility = model.Visibility(visibility)
		sheets = append(sheets, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating sheets: %w", err)
	}
	return sheets, nil
}

// AppendSheetQuestions adds ids not yet on the sheet, preserving the given order.
func (db *DB) AppendSheetQuestions(ctx context.Context, sheetID string, questionIDs []string) (int, error) {
	var added int
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sheets WHERE id = ?`, sheetID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sqlite: checking sheet %s: %w", sheetID, err)
		}
		if exists == 0 {
			return apperror.NotFound("sheet", sheetID)
		}

		added, err = appendQuestionsTx(ctx, tx, sheetID, questionIDs)
		if err != nil {
			return err
		}
		if added > 0 {
			if _, err := tx.ExecContext(ctx, `UPDATE sheets SET updated_at = ? WHERE id = ?`,
				time.Now().UTC(), sheetID); err != nil {
				return fmt.Errorf("sqlite: touching sheet %s: %w", sheetID, err)
			}
		}
		return nil
	})
	return added, err
}

func appendQuestionsTx(ctx context.Context, tx *sql.Tx, sheetID string, questionIDs []string) (int, error) {
	if len(questionIDs) == 0 {
		return 0, nil
	}

	var next int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM sheet_questions WHERE sheet_id = ?`, sheetID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading sheet position: %w", err)
	}

	added := 0
	for _, qid := range questionIDs {
		result, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO sheet_questions (sheet_id, question_id, position) VALUES (?, ?, ?)`,
			sheetID, qid, next,
		)
		if err != nil {
			return 0, fmt.Errorf("sqlite: adding question %s to sheet %s: %w", qid, sheetID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n > 0 {
			added++
			next++
		}
	}
	return added, nil
}
