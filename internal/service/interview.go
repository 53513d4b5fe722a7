package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codeminder/internal/ai"
	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

// InterviewService runs AI mock interviews.
type InterviewService struct {
	model      ai.Model
	interviews repository.InterviewRepository
	logger     *slog.Logger
}

func NewInterviewService(model ai.Model, interviews repository.InterviewRepository, logger *slog.Logger) *InterviewService {
	return &InterviewService{model: model, interviews: interviews, logger: logger}
}

type InterviewInput struct {
	JobRole         string
	JobDescription  string
	ExperienceLevel string
}

// InterviewResult is an interview plus any warnings from parsing the model output.
type InterviewResult struct {
	Interview *model.Interview
	Warnings  []string
}

// Create generates the questions with reference answers and stores the interview.
func (s *InterviewService) Create(ctx context.Context, userID string, in InterviewInput) (*InterviewResult, error) {
	in.JobRole = strings.TrimSpace(in.JobRole)
	in.JobDescription = strings.TrimSpace(in.JobDescription)
	in.ExperienceLevel = strings.TrimSpace(in.ExperienceLevel)
	if in.JobRole == "" || in.JobDescription == "" || in.ExperienceLevel == "" {
		return nil, apperror.ValidationFailed("jobRole", "jobRole, jobDescription and experienceLevel are required")
	}

	var generated []struct {
		QuestionText string `json:"questionText"`
		AIAnswer     string `json:"aiAnswer"`
	}
	prompt := ai.InterviewPrompt(in.JobRole, in.JobDescription, in.ExperienceLevel)
	parse, err := generateJSON(ctx, s.model, s.logger, "interview_questions", prompt, &generated)
	if err != nil {
		return nil, err
	}

	iv := &model.Interview{
		UserID:          userID,
		JobRole:         in.JobRole,
		JobDescription:  in.JobDescription,
		ExperienceLevel: in.ExperienceLevel,
	}
	for _, g := range generated {
		if strings.TrimSpace(g.QuestionText) == "" {
			continue
		}
		iv.Questions = append(iv.Questions, model.InterviewQuestion{Text: g.QuestionText, AIAnswer: g.AIAnswer})
		if len(iv.Questions) == ai.InterviewQuestionCount {
			break
		}
	}
	if len(iv.Questions) == 0 {
		return nil, apperror.MalformedAIResponse(errors.New("model returned no interview questions"))
	}

	if err := s.interviews.CreateInterview(ctx, iv); err != nil {
		return nil, fmt.Errorf("service/interview: creating interview: %w", err)
	}
	s.logger.Info("interview created", slog.String("interviewID", iv.ID), slog.String("userID", userID))
	return &InterviewResult{Interview: iv, Warnings: parse.Warnings()}, nil
}

func (s *InterviewService) Get(ctx context.Context, userID, id string) (*model.Interview, error) {
	return s.owned(ctx, userID, id)
}

func (s *InterviewService) List(ctx context.Context, userID string) ([]model.Interview, error) {
	list, err := s.interviews.ListInterviews(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/interview: listing interviews: %w", err)
	}
	return list, nil
}

// SubmitAnswer has the model score one answer and recomputes the final score.
//
// The model call runs outside any transaction; the answer is then merged into
// the stored interview as it is at write time, so answers and metrics saved
// in the meantime are kept.
func (s *InterviewService) SubmitAnswer(ctx context.Context, userID, id, questionID, answer string) (*InterviewResult, error) {
	if strings.TrimSpace(questionID) == "" || strings.TrimSpace(answer) == "" {
		return nil, apperror.ValidationFailed("userAnswer", "questionId and userAnswer are required")
	}
	iv, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	q := iv.Question(questionID)
	if q == nil {
		return nil, apperror.NotFound("question", questionID)
	}

	var feedback struct {
		Score    float64 `json:"score"`
		Feedback string  `json:"feedback"`
	}
	prompt := ai.AnswerFeedbackPrompt(iv.JobRole, q.Text, q.AIAnswer, answer)
	parse, err := generateJSON(ctx, s.model, s.logger, "interview_feedback", prompt, &feedback)
	if err != nil {
		return nil, err
	}
	score := roundClamped(feedback.Score, 0, model.MaxQuestionScore)

	updated, err := s.interviews.ModifyInterview(ctx, id, func(stored *model.Interview) error {
		sq := stored.Question(questionID)
		if sq == nil {
			return apperror.NotFound("question", questionID)
		}
		sq.UserAnswer = answer
		sq.AIFeedback = feedback.Feedback
		sq.Score = score
		sq.Answered = true
		stored.RecomputeFinalScore()
		return nil
	})
	if err != nil {
		return nil, wrapInterviewErr("saving answer", err)
	}
	return &InterviewResult{Interview: updated, Warnings: parse.Warnings()}, nil
}

// SetExpression stores the confidence and eye-contact metrics (0-100).
func (s *InterviewService) SetExpression(ctx context.Context, userID, id string, confidence, eyeContact int) (*model.Interview, error) {
	if confidence < 0 || confidence > 100 || eyeContact < 0 || eyeContact > 100 {
		return nil, apperror.ValidationFailed("confidence", "confidence and eyecontact must be between 0 and 100")
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := s.interviews.SetInterviewMetrics(ctx, id, confidence, eyeContact); err != nil {
		return nil, wrapInterviewErr("saving metrics", err)
	}
	iv, err := s.interviews.GetInterview(ctx, id)
	if err != nil {
		return nil, wrapInterviewErr("loading interview", err)
	}
	return iv, nil
}

// Reset clears answers, feedback, scores and metrics.
func (s *InterviewService) Reset(ctx context.Context, userID, id string) (*model.Interview, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	iv, err := s.interviews.ModifyInterview(ctx, id, func(stored *model.Interview) error {
		stored.Reset()
		return nil
	})
	if err != nil {
		return nil, wrapInterviewErr("resetting interview", err)
	}
	return iv, nil
}

func (s *InterviewService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.interviews.DeleteInterview(ctx, id); err != nil {
		return fmt.Errorf("service/interview: deleting interview: %w", err)
	}
	return nil
}

func (s *InterviewService) owned(ctx context.Context, userID, id string) (*model.Interview, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("interviewId", "interview id is required")
	}
	iv, err := s.interviews.GetInterview(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/interview: loading interview %s: %w", id, err)
	}
	if iv.UserID != userID {
		return nil, apperror.Forbidden("You do not have access to this interview")
	}
	return iv, nil
}

// wrapInterviewErr keeps not-found errors as they are so they still map to 404.
func wrapInterviewErr(action string, err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	return fmt.Errorf("service/interview: %s: %w", action, err)
}
