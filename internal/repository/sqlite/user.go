package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, email, password_hash, github, leetcode, codeforces, geeksforgeeks,
	profile_pic, created_at, updated_at`

// CreateUser inserts a new user, assigning ID and timestamps.
// A duplicate email returns apperror.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.Email = normalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Handles.GitHub,
		user.Handles.LeetCode,
		user.Handles.Codeforces,
		user.Handles.GeeksForGeeks,
		user.ProfilePic,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &apperror.AppError{Err: apperror.ErrConflict, Message: "User already exists", Field: "email"}
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// GetUserByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail looks a user up by email (case-insensitive).
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// UpdateUser writes the mutable profile fields (name, handles, picture).
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET name = ?, github = ?, leetcode = ?, codeforces = ?, geeksforgeeks = ?,
			profile_pic = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Handles.GitHub,
		user.Handles.LeetCode,
		user.Handles.Codeforces,
		user.Handles.GeeksForGeeks,
		user.ProfilePic,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// ListUserEmails returns every non-empty user email. Used by the contest reminder.
func (db *DB) ListUserEmails(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT email FROM users WHERE email <> '' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing user emails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("sqlite: scanning email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating emails: %w", err)
	}
	return emails, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Handles.GitHub,
		&u.Handles.LeetCode,
		&u.Handles.Codeforces,
		&u.Handles.GeeksForGeeks,
		&u.ProfilePic,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
