package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/codeminder/internal/ai"
	"github.com/sakif/codeminder/internal/apperror"
)

type RoadmapService struct {
	model  ai.Model
	logger *slog.Logger
}

func NewRoadmapService(model ai.Model, logger *slog.Logger) *RoadmapService {
	return &RoadmapService{model: model, logger: logger}
}

type RoadmapStage struct {
	Stage              string   `json:"stage"`
	Description        string   `json:"description"`
	Duration           string   `json:"duration"`
	TopicsToLearn      []string `json:"topics_to_learn"`
	ActionSteps        []string `json:"action_steps"`
	MotivationReminder string   `json:"motivation_reminder"`
	Resources          []any    `json:"resources"` // strings or {title, url} objects
	DifficultyLevel    string   `json:"difficulty_level"`
	ExpectedOutcome    string   `json:"expected_outcome"`
}

type Roadmap struct {
	Stages   []RoadmapStage `json:"roadmap"`
	Warnings []string       `json:"warnings,omitempty"`
}

func (s *RoadmapService) Generate(ctx context.Context, in ai.RoadmapInput) (*Roadmap, error) {
	for field, v := range map[string]string{
		"goal":                 in.Goal,
		"skillLevel":           in.SkillLevel,
		"availableTimePerWeek": in.AvailableTimePerWeek,
		"learningStyle":        in.LearningStyle,
	} {
		if strings.TrimSpace(v) == "" {
			return nil, apperror.ValidationFailed(field, "goal, skillLevel, availableTimePerWeek and learningStyle are required")
		}
	}

	var stages []RoadmapStage
	parse, err := generateJSON(ctx, s.model, s.logger, "roadmap", ai.RoadmapPrompt(in), &stages)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, apperror.MalformedAIResponse(errors.New("model returned an empty roadmap"))
	}
	for i := range stages {
		stages[i].TopicsToLearn = nonNil(stages[i].TopicsToLearn)
		stages[i].ActionSteps = nonNil(stages[i].ActionSteps)
		if stages[i].Resources == nil {
			stages[i].Resources = []any{}
		}
	}
	return &Roadmap{Stages: stages, Warnings: parse.Warnings()}, nil
}
