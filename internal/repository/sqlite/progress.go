package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

var _ repository.ProgressRepository = (*DB)(nil)

// ToggleFollow flips the follow state inside one transaction, so two
// concurrent toggles cannot both observe "not followed".
func (db *DB) ToggleFollow(ctx context.Context, userID, sheetID string) (bool, error) {
	var following bool
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		followed, err := isFollowingTx(ctx, tx, userID, sheetID)
		if err != nil {
			return err
		}

		if followed {
			// Unfollow discards the solved history of this sheet.
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM solved_questions WHERE user_id = ? AND sheet_id = ?`, userID, sheetID); err != nil {
				return fmt.Errorf("sqlite: clearing solved questions: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM user_sheets WHERE user_id = ? AND sheet_id = ?`, userID, sheetID); err != nil {
				return fmt.Errorf("sqlite: unfollowing sheet %s: %w", sheetID, err)
			}
			following = false
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_sheets (user_id, sheet_id, followed_at) VALUES (?, ?, ?)`,
			userID, sheetID, time.Now().UTC()); err != nil {
			return fmt.Errorf("sqlite: following sheet %s: %w", sheetID, err)
		}
		following = true
		return nil
	})
	return following, err
}

// GetProgress returns the user's follow record for one sheet.
// Returns apperror.ErrNotFollowing when the sheet is not followed.
func (db *DB) GetProgress(ctx context.Context, userID, sheetID string) (*model.SheetProgress, error) {
	p := model.SheetProgress{SheetID: sheetID, Solved: []model.SolvedQuestion{}}
	err := db.conn.QueryRowContext(ctx,
		`SELECT followed_at FROM user_sheets WHERE user_id = ? AND sheet_id = ?`, userID, sheetID,
	).Scan(&p.FollowedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFollowing()
		}
		return nil, fmt.Errorf("sqlite: getting progress on %s: %w", sheetID, err)
	}

	solved, err := db.solvedQuestions(ctx,
		`WHERE user_id = ? AND sheet_id = ?`, userID, sheetID)
	if err != nil {
		return nil, err
	}
	p.Solved = solved
	return &p, nil
}

// ListProgress returns every followed sheet with its solved questions, in follow order.
func (db *DB) ListProgress(ctx context.Context, userID string) ([]model.SheetProgress, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT sheet_id, followed_at FROM user_sheets WHERE user_id = ? ORDER BY followed_at, sheet_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing followed sheets: %w", err)
	}

	var progress []model.SheetProgress
	index := map[string]int{}
	for rows.Next() {
		p := model.SheetProgress{Solved: []model.SolvedQuestion{}}
		if err := rows.Scan(&p.SheetID, &p.FollowedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning followed sheet: %w", err)
		}
		index[p.SheetID] = len(progress)
		progress = append(progress, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterating followed sheets: %w", err)
	}
	rows.Close()

	solved, err := db.solvedQuestions(ctx, `WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	for _, sq := range solved {
		if i, ok := index[sq.SheetID]; ok {
			progress[i].Solved = append(progress[i].Solved, sq)
		}
	}
	return progress, nil
}

// ToggleSolved flips one question's solved state on a followed sheet.
func (db *DB) ToggleSolved(ctx context.Context, userID, sheetID, questionID string, at time.Time) (bool, error) {
	var solved bool
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		followed, err := isFollowingTx(ctx, tx, userID, sheetID)
		if err != nil {
			return err
		}
		if !followed {
			return apperror.NotFollowing()
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM solved_questions WHERE user_id = ? AND sheet_id = ? AND question_id = ?`,
			userID, sheetID, questionID)
		if err != nil {
			return fmt.Errorf("sqlite: unsolving question %s: %w", questionID, err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		} else if n > 0 {
			solved = false
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO solved_questions (user_id, sheet_id, question_id, status, solved_at)
			 VALUES (?, ?, ?, ?, ?)`,
			userID, sheetID, questionID, model.StatusCompleted, at.UTC()); err != nil {
			return fmt.Errorf("sqlite: solving question %s: %w", questionID, err)
		}
		solved = true
		return nil
	})
	return solved, err
}

func (db *DB) solvedQuestions(ctx context.Context, where string, args ...any) ([]model.SolvedQuestion, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT sheet_id, question_id, status, solved_at FROM solved_questions `+where+` ORDER BY solved_at, question_id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing solved questions: %w", err)
	}
	defer rows.Close()

	solved := []model.SolvedQuestion{}
	for rows.Next() {
		var sq model.SolvedQuestion
		if err := rows.Scan(&sq.SheetID, &sq.QuestionID, &sq.Status, &sq.SolvedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning solved question: %w", err)
		}
		solved = append(solved, sq)
	}
	return solved, rows.Err()
}

func isFollowingTx(ctx context.Context, tx *sql.Tx, userID, sheetID string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_sheets WHERE user_id = ? AND sheet_id = ?`, userID, sheetID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow state: %w", err)
	}
	return n > 0, nil
}
