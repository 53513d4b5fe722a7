package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

// NoteService manages notes. Every single-note operation is restricted to
// the note's owner.
type NoteService struct {
	notes     repository.NoteRepository
	questions repository.QuestionRepository
	logger    *slog.Logger
}

func NewNoteService(notes repository.NoteRepository, questions repository.QuestionRepository, logger *slog.Logger) *NoteService {
	return &NoteService{notes: notes, questions: questions, logger: logger}
}

type NoteInput struct {
	Type       model.NoteType
	QuestionID string
	Name       string
	Content    string
}

// NoteView is the client representation of a note: question notes carry
// the question, general notes carry their name.
type NoteView struct {
	ID        string         `json:"noteId"`
	Type      model.NoteType `json:"type"`
	Content   string         `json:"content"`
	Question  *NoteQuestion  `json:"question,omitempty"`
	Name      string         `json:"noteName,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type NoteQuestion struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (s *NoteService) Create(ctx context.Context, userID string, in NoteInput) (*NoteView, error) {
	if in.Type == "" || strings.TrimSpace(in.Content) == "" {
		return nil, apperror.ValidationFailed("content", "Type and content are required")
	}
	note := &model.Note{
		UserID:     userID,
		Type:       in.Type,
		QuestionID: strings.TrimSpace(in.QuestionID),
		Name:       strings.TrimSpace(in.Name),
		Content:    in.Content,
	}
	if err := note.Validate(); err != nil {
		return nil, apperror.ValidationFailed("type", err.Error())
	}

	var question *model.Question
	if note.Type == model.NoteTypeQuestion {
		q, err := s.questions.GetQuestion(ctx, note.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("service/note: loading question: %w", err)
		}
		question = q
	}

	if err := s.notes.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("service/note: creating note: %w", err)
	}
	s.logger.Info("note created", slog.String("noteID", note.ID), slog.String("userID", userID))
	return toView(note, question), nil
}

// Update replaces the content. name is applied to general notes only and
// ignored when empty.
func (s *NoteService) Update(ctx context.Context, userID, noteID, content, name string) (*NoteView, error) {
	if strings.TrimSpace(noteID) == "" || strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("content", "noteId and content are required")
	}
	note, err := s.owned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	note.Content = content
	if name = strings.TrimSpace(name); name != "" && note.Type == model.NoteTypeGeneral {
		note.Name = name
	}
	if err := s.notes.UpdateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("service/note: updating note %s: %w", noteID, err)
	}
	return s.view(ctx, note)
}

func (s *NoteService) Get(ctx context.Context, userID, noteID string) (*NoteView, error) {
	note, err := s.owned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, note)
}

func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	if _, err := s.owned(ctx, userID, noteID); err != nil {
		return err
	}
	if err := s.notes.DeleteNote(ctx, noteID); err != nil {
		return fmt.Errorf("service/note: deleting note %s: %w", noteID, err)
	}
	s.logger.Info("note deleted", slog.String("noteID", noteID), slog.String("userID", userID))
	return nil
}

func (s *NoteService) ListGeneral(ctx context.Context, userID string) ([]NoteView, error) {
	notes, err := s.notes.ListNotes(ctx, userID, model.NoteTypeGeneral)
	if err != nil {
		return nil, fmt.Errorf("service/note: listing notes: %w", err)
	}
	out := make([]NoteView, 0, len(notes))
	for i := range notes {
		out = append(out, *toView(&notes[i], nil))
	}
	return out, nil
}

// ListForQuestions returns the user's question notes with their question titles.
func (s *NoteService) ListForQuestions(ctx context.Context, userID string) ([]NoteView, error) {
	notes, err := s.notes.ListNotes(ctx, userID, model.NoteTypeQuestion)
	if err != nil {
		return nil, fmt.Errorf("service/note: listing notes: %w", err)
	}
	ids := make([]string, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.QuestionID)
	}
	questions, err := s.questions.GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service/note: loading questions: %w", err)
	}

	out := make([]NoteView, 0, len(notes))
	for i := range notes {
		out = append(out, *toView(&notes[i], questions[notes[i].QuestionID]))
	}
	return out, nil
}

// owned loads the note and checks the requester owns it.
func (s *NoteService) owned(ctx context.Context, userID, noteID string) (*model.Note, error) {
	note, err := s.notes.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/note: loading note %s: %w", noteID, err)
	}
	if !note.OwnedBy(userID) {
		s.logger.Warn("note access denied", slog.String("noteID", noteID), slog.String("userID", userID))
		return nil, apperror.Forbidden("Unauthorized")
	}
	return note, nil
}

func (s *NoteService) view(ctx context.Context, note *model.Note) (*NoteView, error) {
	if note.Type != model.NoteTypeQuestion {
		return toView(note, nil), nil
	}
	q, err := s.questions.GetQuestion(ctx, note.QuestionID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/note: loading question: %w", err)
	}
	return toView(note, q), nil
}

func toView(note *model.Note, q *model.Question) *NoteView {
	v := &NoteView{
		ID:        note.ID,
		Type:      note.Type,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
	switch note.Type {
	case model.NoteTypeQuestion:
		v.Question = &NoteQuestion{ID: note.QuestionID}
		if q != nil {
			v.Question.Title = q.Title
		}
	default:
		v.Name = note.Name
	}
	return v
}
