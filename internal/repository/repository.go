// Package repository declares the storage interfaces the service layer
// depends on. internal/repository/sqlite implements all of them on one *DB;
// service tests implement them with in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/codeminder/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	ListUserEmails(ctx context.Context) ([]string, error)
}

// SnapshotRepository is the cache store for normalized platform stats.
type SnapshotRepository interface {
	GetSnapshot(ctx context.Context, userID string, platform model.Platform) (*model.Snapshot, error)
	// UpsertSnapshot replaces the whole snapshot for (UserID, Platform).
	UpsertSnapshot(ctx context.Context, snap *model.Snapshot) error
}

// SheetSummary is a sheet with its question count, for list views.
type SheetSummary struct {
	model.Sheet
	TotalQuestions int `json:"totalQuestions"`
}

type SheetRepository interface {
	CreateSheet(ctx context.Context, sheet *model.Sheet) error
	GetSheet(ctx context.Context, id string) (*model.Sheet, error)
	ListSheets(ctx context.Context, viewerID string) ([]SheetSummary, error)
	// AppendSheetQuestions adds question ids to the end of the sheet, skipping
	// ids already on it. It returns how many were added.
	AppendSheetQuestions(ctx context.Context, sheetID string, questionIDs []string) (int, error)
}

type QuestionRepository interface {
	// FindOrCreateQuestion returns the question with q.Title, creating it from q when absent.
	FindOrCreateQuestion(ctx context.Context, q *model.Question) (*model.Question, bool, error)
	GetQuestion(ctx context.Context, id string) (*model.Question, error)
	GetQuestionsByIDs(ctx context.Context, ids []string) (map[string]*model.Question, error)
}

// ProgressRepository stores per-user follow and solve state.
type ProgressRepository interface {
	// ToggleFollow follows the sheet, or unfollows it (dropping its solved
	// history) when already followed. It returns the new follow state.
	ToggleFollow(ctx context.Context, userID, sheetID string) (bool, error)
	GetProgress(ctx context.Context, userID, sheetID string) (*model.SheetProgress, error)
	ListProgress(ctx context.Context, userID string) ([]model.SheetProgress, error)
	// ToggleSolved flips the solved state of a question on a followed sheet
	// and returns the new state. It fails with apperror.ErrNotFollowing when
	// the sheet is not followed.
	ToggleSolved(ctx context.Context, userID, sheetID, questionID string, at time.Time) (bool, error)
}

type NoteRepository interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, id string) (*model.Note, error)
	UpdateNote(ctx context.Context, note *model.Note) error
	DeleteNote(ctx context.Context, id string) error
	ListNotes(ctx context.Context, userID string, noteType model.NoteType) ([]model.Note, error)
	// QuestionNoteIDs maps question id -> note id for the user's question notes.
	QuestionNoteIDs(ctx context.Context, userID string) (map[string]string, error)
}

type ResumeRepository interface {
	UpsertResume(ctx context.Context, resume *model.Resume) error
	GetResume(ctx context.Context, userID string) (*model.Resume, error)
}

type InterviewRepository interface {
	CreateInterview(ctx context.Context, iv *model.Interview) error
	GetInterview(ctx context.Context, id string) (*model.Interview, error)
	ListInterviews(ctx context.Context, userID string) ([]model.Interview, error)
	// ModifyInterview applies modify to the stored interview and saves the
	// result atomically. Errors from modify are returned unchanged.
	ModifyInterview(ctx context.Context, id string, modify func(iv *model.Interview) error) (*model.Interview, error)
	SetInterviewMetrics(ctx context.Context, id string, confidence, eyeContact int) error
	DeleteInterview(ctx context.Context, id string) error
}
