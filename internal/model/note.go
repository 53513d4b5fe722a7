package model

import (
	"errors"
	"time"
)

type NoteType string

const (
	NoteTypeQuestion NoteType = "question"
	NoteTypeGeneral  NoteType = "general"
)

// Note is free text owned by one user. A question note points at a
// Question and has no name; a general note has a name and no question.
type Note struct {
	ID         string    `json:"noteId"`
	UserID     string    `json:"-"`
	Type       NoteType  `json:"type"`
	QuestionID string    `json:"questionId,omitempty"`
	Name       string    `json:"noteName,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Validate enforces the two mutually exclusive note variants.
func (n *Note) Validate() error {
	if n.Content == "" {
		return errors.New("content is required")
	}
	switch n.Type {
	case NoteTypeQuestion:
		if n.QuestionID == "" {
			return errors.New("question_id is required for question notes")
		}
		if n.Name != "" {
			return errors.New("question notes do not have a name")
		}
	case NoteTypeGeneral:
		if n.Name == "" {
			return errors.New("noteName is required for general notes")
		}
		if n.QuestionID != "" {
			return errors.New("general notes cannot reference a question")
		}
	default:
		return errors.New("type must be \"question\" or \"general\"")
	}
	return nil
}

// OwnedBy reports whether userID owns the note.
func (n *Note) OwnedBy(userID string) bool {
	return n.UserID != "" && n.UserID == userID
}
