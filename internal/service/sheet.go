package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

// SheetSource supplies the questions of the remote practice sheet.
type SheetSource interface {
	Questions(ctx context.Context) ([]model.Question, error)
}

// SheetService manages practice sheets and each user's follow/solve state.
type SheetService struct {
	users     repository.UserRepository
	sheets    repository.SheetRepository
	questions repository.QuestionRepository
	progress  repository.ProgressRepository
	notes     repository.NoteRepository
	source    SheetSource
	logger    *slog.Logger
	now       func() time.Time
}

func NewSheetService(
	users repository.UserRepository,
	sheets repository.SheetRepository,
	questions repository.QuestionRepository,
	progress repository.ProgressRepository,
	notes repository.NoteRepository,
	source SheetSource,
	logger *slog.Logger,
) *SheetService {
	return &SheetService{
		users:     users,
		sheets:    sheets,
		questions: questions,
		progress:  progress,
		notes:     notes,
		source:    source,
		logger:    logger,
		now:       time.Now,
	}
}

type SheetInput struct {
	Title       string
	Description string
	Visibility  model.Visibility
}

func (s *SheetService) Create(ctx context.Context, authorID string, in SheetInput) (*model.Sheet, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "Title is required.")
	}
	switch in.Visibility {
	case "":
		in.Visibility = model.VisibilityPublic
	case model.VisibilityPublic, model.VisibilityPrivate:
	default:
		return nil, apperror.ValidationFailed("visibility", "visibility must be Public or Private")
	}

	if _, err := s.users.GetUserByID(ctx, authorID); err != nil {
		return nil, fmt.Errorf("service/sheet: loading author: %w", err)
	}

	sheet := &model.Sheet{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		AuthorID:    authorID,
		Visibility:  in.Visibility,
		QuestionIDs: []string{},
	}
	if err := s.sheets.CreateSheet(ctx, sheet); err != nil {
		return nil, fmt.Errorf("service/sheet: creating sheet: %w", err)
	}
	s.logger.Info("sheet created", slog.String("sheetID", sheet.ID), slog.String("userID", authorID))
	return sheet, nil
}

// List returns public sheets and the viewer's private ones.
func (s *SheetService) List(ctx context.Context, viewerID string) ([]repository.SheetSummary, error) {
	sheets, err := s.sheets.ListSheets(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("service/sheet: listing sheets: %w", err)
	}
	return sheets, nil
}

type FollowResult struct {
	Following bool   `json:"following"`
	Message   string `json:"message"`
}

// ToggleFollow follows the sheet or, if already followed, unfollows it and
// drops its solved history.
func (s *SheetService) ToggleFollow(ctx context.Context, userID, sheetID string) (*FollowResult, error) {
	if _, err := s.visibleSheet(ctx, userID, sheetID); err != nil {
		return nil, err
	}
	following, err := s.progress.ToggleFollow(ctx, userID, sheetID)
	if err != nil {
		return nil, fmt.Errorf("service/sheet: toggling follow: %w", err)
	}
	if following {
		return &FollowResult{Following: true, Message: "Followed the sheet."}, nil
	}
	return &FollowResult{Following: false, Message: "Unfollowed the sheet."}, nil
}

// SheetDetails is a sheet's questions grouped by topic with the caller's status.
type SheetDetails struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Visibility    string       `json:"visibility"`
	TotalQuestion int          `json:"totalquestion"`
	TotalSolved   int          `json:"totalsolved"`
	Data          []TopicGroup `json:"data"`
}

type TopicGroup struct {
	Topic     string          `json:"topic"`
	Questions []QuestionState `json:"questions"`
}

type QuestionState struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Platform   string   `json:"platform"`
	URL        string   `json:"url"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
	Status     string   `json:"status"`
	NoteID     string   `json:"noteId,omitempty"`
}

// Details groups the sheet's questions by topic, in the order each topic
// first appears on the sheet.
func (s *SheetService) Details(ctx context.Context, userID, sheetID string) (*SheetDetails, error) {
	sheet, err := s.visibleSheet(ctx, userID, sheetID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.GetQuestionsByIDs(ctx, sheet.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("service/sheet: loading questions: %w", err)
	}

	solved := map[string]bool{}
	prog, err := s.progress.GetProgress(ctx, userID, sheetID)
	switch {
	case err == nil:
		for _, sq := range prog.Solved {
			solved[sq.QuestionID] = true
		}
	case errors.Is(err, apperror.ErrNotFollowing):
	default:
		return nil, fmt.Errorf("service/sheet: loading progress: %w", err)
	}

	noteIDs, err := s.notes.QuestionNoteIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/sheet: loading notes: %w", err)
	}

	details := &SheetDetails{
		ID:          sheet.ID,
		Title:       sheet.Title,
		Description: sheet.Description,
		Visibility:  string(sheet.Visibility),
		Data:        []TopicGroup{},
	}
	groupIndex := map[string]int{}
	for _, id := range sheet.QuestionIDs {
		q, ok := questions[id]
		if !ok {
			continue
		}
		status := model.StatusNotAttempted
		if solved[id] {
			status = model.StatusCompleted
			details.TotalSolved++
		}
		details.TotalQuestion++

		i, ok := groupIndex[q.Topic]
		if !ok {
			i = len(details.Data)
			groupIndex[q.Topic] = i
			details.Data = append(details.Data, TopicGroup{Topic: q.Topic})
		}
		details.Data[i].Questions = append(details.Data[i].Questions, QuestionState{
			ID:         q.ID,
			Title:      q.Title,
			Platform:   q.Platform,
			URL:        q.URL,
			Difficulty: q.Difficulty,
			Tags:       q.Tags,
			Status:     status,
			NoteID:     noteIDs[q.ID],
		})
	}
	return details, nil
}

type FollowedSheet struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	TotalQuestions  int       `json:"totalQuestions"`
	SolvedQuestions int       `json:"solvedQuestions"`
	FollowedAt      time.Time `json:"followedAt"`
}

func (s *SheetService) Followed(ctx context.Context, userID string) ([]FollowedSheet, error) {
	progress, err := s.progress.ListProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/sheet: listing progress: %w", err)
	}

	out := []FollowedSheet{}
	for _, p := range progress {
		sheet, err := s.sheets.GetSheet(ctx, p.SheetID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("service/sheet: loading sheet %s: %w", p.SheetID, err)
		}
		out = append(out, FollowedSheet{
			ID:              sheet.ID,
			Title:           sheet.Title,
			Description:     sheet.Description,
			TotalQuestions:  len(sheet.QuestionIDs),
			SolvedQuestions: len(p.Solved),
			FollowedAt:      p.FollowedAt,
		})
	}
	return out, nil
}

type SolveResult struct {
	Solved  bool   `json:"solved"`
	Message string `json:"message"`
}

// ToggleSolved flips one question's solved state. The sheet must be
// followed and the question must be on it.
func (s *SheetService) ToggleSolved(ctx context.Context, userID, sheetID, questionID string) (*SolveResult, error) {
	sheet, err := s.visibleSheet(ctx, userID, sheetID)
	if err != nil {
		return nil, err
	}
	if _, err := s.progress.GetProgress(ctx, userID, sheetID); err != nil {
		if errors.Is(err, apperror.ErrNotFollowing) {
			return nil, err
		}
		return nil, fmt.Errorf("service/sheet: loading progress: %w", err)
	}
	if !slices.Contains(sheet.QuestionIDs, questionID) {
		return nil, apperror.NotFound("question", questionID)
	}

	solved, err := s.progress.ToggleSolved(ctx, userID, sheetID, questionID, s.now())
	if err != nil {
		if errors.Is(err, apperror.ErrNotFollowing) {
			return nil, err
		}
		return nil, fmt.Errorf("service/sheet: toggling solved: %w", err)
	}
	if solved {
		return &SolveResult{Solved: true, Message: "Question marked as solved successfully"}, nil
	}
	return &SolveResult{Solved: false, Message: "Question marked as unsolved successfully"}, nil
}

type SolvedEntry struct {
	SheetID  string          `json:"sheetId"`
	Question *model.Question `json:"question"`
	Status   string          `json:"status"`
	SolvedAt time.Time       `json:"solvedAt"`
	NoteID   string          `json:"noteId,omitempty"`
}

// Solved lists every solved question across the user's followed sheets.
func (s *SheetService) Solved(ctx context.Context, userID string) ([]SolvedEntry, error) {
	progress, err := s.progress.ListProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/sheet: listing progress: %w", err)
	}

	var ids []string
	for _, p := range progress {
		for _, sq := range p.Solved {
			ids = append(ids, sq.QuestionID)
		}
	}
	questions, err := s.questions.GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service/sheet: loading questions: %w", err)
	}
	noteIDs, err := s.notes.QuestionNoteIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/sheet: loading notes: %w", err)
	}

	out := []SolvedEntry{}
	for _, p := range progress {
		for _, sq := range p.Solved {
			q, ok := questions[sq.QuestionID]
			if !ok {
				continue
			}
			out = append(out, SolvedEntry{
				SheetID:  p.SheetID,
				Question: q,
				Status:   sq.Status,
				SolvedAt: sq.SolvedAt,
				NoteID:   noteIDs[sq.QuestionID],
			})
		}
	}
	return out, nil
}

type ImportResult struct {
	Added   int    `json:"added"`
	Message string `json:"message"`
}

// ImportFromSource appends the remote sheet's questions to the author's
// sheet. Questions are matched by exact title and reused; only questions
// not already on the sheet are appended.
func (s *SheetService) ImportFromSource(ctx context.Context, userID, sheetID string) (*ImportResult, error) {
	sheet, err := s.visibleSheet(ctx, userID, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet.AuthorID != userID {
		return nil, apperror.Forbidden("Only the sheet author can add questions")
	}

	incoming, err := s.source.Questions(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var ids []string
	created := 0
	for i := range incoming {
		q, isNew, err := s.questions.FindOrCreateQuestion(ctx, &incoming[i])
		if err != nil {
			return nil, fmt.Errorf("service/sheet: importing %q: %w", incoming[i].Title, err)
		}
		if isNew {
			created++
		}
		if !seen[q.ID] {
			seen[q.ID] = true
			ids = append(ids, q.ID)
		}
	}

	added, err := s.sheets.AppendSheetQuestions(ctx, sheetID, ids)
	if err != nil {
		return nil, fmt.Errorf("service/sheet: appending questions: %w", err)
	}
	s.logger.Info("sheet import finished",
		slog.String("sheetID", sheetID),
		slog.Int("fetched", len(incoming)),
		slog.Int("created", created),
		slog.Int("added", added),
	)

	if added == 0 {
		return &ImportResult{Message: "No new questions to add."}, nil
	}
	return &ImportResult{Added: added, Message: "Questions added."}, nil
}

// visibleSheet loads a sheet the user may see. A private sheet of another
// author is reported as not found.
func (s *SheetService) visibleSheet(ctx context.Context, userID, sheetID string) (*model.Sheet, error) {
	if strings.TrimSpace(sheetID) == "" {
		return nil, apperror.ValidationFailed("sheetId", "Sheet ID required.")
	}
	sheet, err := s.sheets.GetSheet(ctx, sheetID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/sheet: loading sheet %s: %w", sheetID, err)
	}
	if !sheet.VisibleTo(userID) {
		return nil, apperror.NotFound("sheet", sheetID)
	}
	return sheet, nil
}
