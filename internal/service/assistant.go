package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codeminder/internal/ai"
	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

// AssistantService answers free-form questions with the user's cached stats
// and resume as background.
type AssistantService struct {
	model    ai.Model
	users    repository.UserRepository
	profiles *ProfileService
	resumes  repository.ResumeRepository
	logger   *slog.Logger
}

func NewAssistantService(
	model ai.Model,
	users repository.UserRepository,
	profiles *ProfileService,
	resumes repository.ResumeRepository,
	logger *slog.Logger,
) *AssistantService {
	return &AssistantService{model: model, users: users, profiles: profiles, resumes: resumes, logger: logger}
}

// statsSummary is the part of a snapshot worth putting in a prompt. The
// per-day calendar is left out.
type statsSummary struct {
	Platform   model.Platform          `json:"platform"`
	Username   string                  `json:"username"`
	Solved     model.SolvedCounts      `json:"solved"`
	Topics     map[string]int          `json:"topics,omitempty"`
	GitHub     *model.GitHubExtras     `json:"github,omitempty"`
	LeetCode   *model.LeetCodeExtras   `json:"leetcode,omitempty"`
	Codeforces *model.CodeforcesExtras `json:"codeforces,omitempty"`
}

// Ask answers question. Only cached snapshots are used; nothing is refreshed.
func (s *AssistantService) Ask(ctx context.Context, userID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperror.ValidationFailed("question", "question is required")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("service/assistant: loading user: %w", err)
	}

	snaps, err := s.profiles.CachedSnapshots(ctx, user)
	if err != nil {
		return "", err
	}
	in := ai.ChatInput{Name: user.Name, Question: question}
	if len(snaps) > 0 {
		summaries := make([]statsSummary, 0, len(snaps))
		for _, snap := range snaps {
			st := snap.Stats
			summaries = append(summaries, statsSummary{
				Platform:   st.Platform,
				Username:   st.Username,
				Solved:     st.Solved,
				Topics:     st.Topics,
				GitHub:     st.GitHub,
				LeetCode:   st.LeetCode,
				Codeforces: st.Codeforces,
			})
		}
		b, err := json.Marshal(summaries)
		if err != nil {
			return "", fmt.Errorf("service/assistant: encoding stats: %w", err)
		}
		in.Stats = string(b)
	}

	resume, err := s.resumes.GetResume(ctx, userID)
	switch {
	case err == nil:
		in.Resume = string(resume.Data)
	case errors.Is(err, apperror.ErrNotFound):
	default:
		return "", fmt.Errorf("service/assistant: loading resume: %w", err)
	}

	answer, err := generateText(ctx, s.model, s.logger, "chat", ai.ChatPrompt(in))
	if err != nil {
		return "", err
	}
	return answer, nil
}
