package model

import "time"

// Visibility of a sheet.
type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityPrivate Visibility = "Private"
)

// Sheet is an authored, ordered collection of questions.
type Sheet struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AuthorID    string     `json:"authorId"`
	Visibility  Visibility `json:"visibility"`
	QuestionIDs []string   `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// VisibleTo reports whether userID may read the sheet.
func (s *Sheet) VisibleTo(userID string) bool {
	return s.Visibility != VisibilityPrivate || s.AuthorID == userID
}

// Question is a canonical practice problem. Titles are unique.
type Question struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Platform   string   `json:"platform"`
	URL        string   `json:"url"`
	Difficulty string   `json:"difficulty"`
	Topic      string   `json:"topic"`
	Tags       []string `json:"tags"`
}

// Solve status values.
const (
	StatusCompleted    = "Completed"
	StatusNotAttempted = "Not Attempted"
)

// SheetProgress is a user's follow record for one sheet.
type SheetProgress struct {
	SheetID    string           `json:"sheetId"`
	FollowedAt time.Time        `json:"followedAt"`
	Solved     []SolvedQuestion `json:"solvedQuestions"`
}

type SolvedQuestion struct {
	SheetID    string    `json:"sheetId"`
	QuestionID string    `json:"questionId"`
	Status     string    `json:"status"`
	SolvedAt   time.Time `json:"solvedAt"`
}
