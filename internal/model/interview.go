package model

import (
	"encoding/json"
	"math"
	"time"
)

// Resume holds the structured fields extracted from a user's last uploaded
// resume. Data is a JSON object whose sections depend on the resume.
type Resume struct {
	UserID    string          `json:"userId"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Interview is a mock interview generated for one job role.
type Interview struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	JobRole         string              `json:"jobRole"`
	JobDescription  string              `json:"jobDescription"`
	ExperienceLevel string              `json:"experienceLevel"`
	Questions       []InterviewQuestion `json:"questions"`
	Confidence      int                 `json:"confidence"`
	EyeContact      int                 `json:"eyecontact"`
	FinalScore      int                 `json:"finalScore"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// InterviewQuestion is one question with the model's reference answer and,
// once answered, the user's answer with its score (0-10).
type InterviewQuestion struct {
	ID         string `json:"id"`
	Text       string `json:"questionText"`
	AIAnswer   string `json:"aiAnswer"`
	UserAnswer string `json:"userAnswer"`
	AIFeedback string `json:"aiFeedback"`
	Score      int    `json:"score"`
	Answered   bool   `json:"answered"`
}

// MaxQuestionScore is the top score the model may award one answer.
const MaxQuestionScore = 10

// Question returns a pointer to the question with id, or nil.
func (iv *Interview) Question(id string) *InterviewQuestion {
	for i := range iv.Questions {
		if iv.Questions[i].ID == id {
			return &iv.Questions[i]
		}
	}
	return nil
}

// RecomputeFinalScore sets FinalScore to the percentage of the maximum
// attainable score earned so far. Unanswered questions count as zero.
func (iv *Interview) RecomputeFinalScore() {
	if len(iv.Questions) == 0 {
		iv.FinalScore = 0
		return
	}
	sum := 0
	for _, q := range iv.Questions {
		if q.Answered {
			sum += q.Score
		}
	}
	possible := MaxQuestionScore * len(iv.Questions)
	iv.FinalScore = int(math.Round(100 * float64(sum) / float64(possible)))
}

// Reset clears every answer and metric so the interview can be retaken.
func (iv *Interview) Reset() {
	for i := range iv.Questions {
		iv.Questions[i].UserAnswer = ""
		iv.Questions[i].AIFeedback = ""
		iv.Questions[i].Score = 0
		iv.Questions[i].Answered = false
	}
	iv.Confidence = 0
	iv.EyeContact = 0
	iv.FinalScore = 0
}
