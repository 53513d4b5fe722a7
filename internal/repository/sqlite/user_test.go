package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Name:         "Ada",
		Email:        "  Ada@Example.COM ",
		PasswordHash: "hash",
		Handles:      model.Handles{GitHub: "ada"},
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("CreateUser() did not set timestamps")
	}
	if user.Email != "ada@example.com" {
		t.Errorf("Email = %q, want it normalized to %q", user.Email, "ada@example.com")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com")

	err := db.CreateUser(context.Background(), &model.User{
		Name:         "Other",
		Email:        "DUP@example.com",
		PasswordHash: "hash",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() error = %v, want ErrConflict", err)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Message != "User already exists" {
		t.Errorf("message = %v, want %q", err, "User already exists")
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "read@example.com")

	got, err := db.GetUserByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Email != created.Email || got.Name != created.Name {
		t.Errorf("GetUserByID() = %+v, want %+v", got, created)
	}
	if got.PasswordHash != created.PasswordHash {
		t.Error("password hash not persisted")
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "mixed@example.com")

	got, err := db.GetUserByEmail(context.Background(), "MIXED@Example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetUserByEmail() id = %s, want %s", got.ID, created.ID)
	}

	if _, err := db.GetUserByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByEmail(unknown) error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "edit@example.com")
	createdAt := user.CreatedAt

	user.Name = "Renamed"
	user.Handles = model.Handles{LeetCode: "lc_user", Codeforces: "cf_user", GeeksForGeeks: "gfg"}
	user.ProfilePic = "https://example.com/me.png"
	if err := db.UpdateUser(context.Background(), user); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	got, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Name != "Renamed" || got.Handles != user.Handles || got.ProfilePic != user.ProfilePic {
		t.Errorf("after update got %+v", got)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt changed: %v -> %v", createdAt, got.CreatedAt)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateUser(context.Background(), &model.User{ID: "missing", Name: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("UpdateUser() error = %v, want ErrNotFound", err)
	}
}

func TestListUserEmails(t *testing.T) {
	db := newTestDB(t)

	emails, err := db.ListUserEmails(context.Background())
	if err != nil {
		t.Fatalf("ListUserEmails() error = %v", err)
	}
	if len(emails) != 0 {
		t.Fatalf("ListUserEmails() on empty db = %v", emails)
	}

	createTestUser(t, db, "a@example.com")
	createTestUser(t, db, "b@example.com")

	emails, err = db.ListUserEmails(context.Background())
	if err != nil {
		t.Fatalf("ListUserEmails() error = %v", err)
	}
	if len(emails) != 2 {
		t.Errorf("ListUserEmails() = %v, want 2 emails", emails)
	}
}
