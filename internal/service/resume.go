package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sakif/codeminder/internal/ai"
	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

// MaxResumeBytes bounds an uploaded resume.
const MaxResumeBytes = 5 << 20

// ResumeService scores resumes against a job category and keeps the
// structured fields of the user's latest resume.
type ResumeService struct {
	model          ai.Model
	resumes        repository.ResumeRepository
	logger         *slog.Logger
	extractTimeout time.Duration
	extractText    func([]byte) (string, error)

	// extractions tracks background extraction goroutines.
	extractions sync.WaitGroup
}

func NewResumeService(model ai.Model, resumes repository.ResumeRepository, logger *slog.Logger) *ResumeService {
	return &ResumeService{
		model:          model,
		resumes:        resumes,
		logger:         logger,
		extractTimeout: 2 * time.Minute,
		extractText:    ai.ExtractPDFText,
	}
}

type ResumeAnalysis struct {
	MatchPercentage int      `json:"matchPercentage"`
	MissingKeywords []string `json:"missingKeywords"`
	Strengths       []string `json:"strengths"`
	Suggestions     []string `json:"suggestions"`
	Summary         string   `json:"summary"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Analyze extracts the PDF text and asks the model how well it fits category.
//
// Before the analysis call it starts a fire-and-forget extraction of the
// resume's structured fields: that goroutine runs on a context detached from
// ctx with its own timeout, upserts the result into the resume store, and
// only logs its failures. Its outcome never affects the returned analysis.
// Wait blocks until such goroutines have finished.
func (s *ResumeService) Analyze(ctx context.Context, userID, category string, pdf []byte) (*ResumeAnalysis, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperror.ValidationFailed("category", "Job category is required")
	}
	if len(pdf) == 0 {
		return nil, apperror.ValidationFailed("resume", "No PDF file uploaded")
	}
	if len(pdf) > MaxResumeBytes {
		return nil, apperror.ValidationFailed("resume", "resume must be at most 5 MB")
	}

	text, err := s.extractText(pdf)
	if err != nil {
		s.logger.Warn("resume text extraction failed", slog.String("userID", userID), slog.String("error", err.Error()))
		return nil, apperror.ValidationFailed("resume", "could not read text from the PDF")
	}

	s.startExtraction(ctx, userID, text)

	var raw struct {
		MatchPercentage float64  `json:"matchPercentage"`
		MissingKeywords []string `json:"missingKeywords"`
		Strengths       []string `json:"strengths"`
		Suggestions     []string `json:"suggestions"`
		Summary         string   `json:"summary"`
	}
	parse, err := generateJSON(ctx, s.model, s.logger, "resume_analysis", ai.ResumeAnalysisPrompt(text, category), &raw)
	if err != nil {
		return nil, err
	}

	return &ResumeAnalysis{
		MatchPercentage: roundClamped(raw.MatchPercentage, 0, 100),
		MissingKeywords: nonNil(raw.MissingKeywords),
		Strengths:       nonNil(raw.Strengths),
		Suggestions:     nonNil(raw.Suggestions),
		Summary:         raw.Summary,
		Warnings:        parse.Warnings(),
	}, nil
}

// Get returns the user's stored structured resume.
func (s *ResumeService) Get(ctx context.Context, userID string) (*model.Resume, error) {
	r, err := s.resumes.GetResume(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/resume: loading resume: %w", err)
	}
	return r, nil
}

// Wait blocks until every background extraction has finished.
func (s *ResumeService) Wait() {
	s.extractions.Wait()
}

func (s *ResumeService) startExtraction(ctx context.Context, userID, text string) {
	ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.extractTimeout)
	s.extractions.Go(func() {
		defer cancel()
		if err := s.extract(ectx, userID, text); err != nil {
			s.logger.Error("structured resume extraction failed",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
	})
}

func (s *ResumeService) extract(ctx context.Context, userID, text string) error {
	var fields map[string]any
	if _, err := generateJSON(ctx, s.model, s.logger, "resume_extraction", ai.ResumeExtractionPrompt(text), &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("model returned no resume fields")
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding resume fields: %w", err)
	}
	resume := &model.Resume{UserID: userID, Data: data, CreatedAt: time.Now().UTC()}
	if err := s.resumes.UpsertResume(ctx, resume); err != nil {
		return err
	}
	s.logger.Info("structured resume stored", slog.String("userID", userID))
	return nil
}

// roundClamped clamps a model-supplied number to [lo, hi] before rounding,
// so out-of-range values never reach the int conversion.
func roundClamped(v float64, lo, hi int) int {
	return int(math.Round(max(float64(lo), min(v, float64(hi)))))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
