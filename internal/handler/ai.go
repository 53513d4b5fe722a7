package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/codeminder/internal/ai"
	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/service"
)

// AIHandler serves the assistant chat, resume analysis and roadmaps.
type AIHandler struct {
	assistant *service.AssistantService
	resumes   *service.ResumeService
	roadmaps  *service.RoadmapService
	logger    *slog.Logger
}

func NewAIHandler(
	assistant *service.AssistantService,
	resumes *service.ResumeService,
	roadmaps *service.RoadmapService,
	logger *slog.Logger,
) *AIHandler {
	return &AIHandler{assistant: assistant, resumes: resumes, roadmaps: roadmaps, logger: logger}
}

type chatRequest struct {
	Question string `json:"question" validate:"required"`
}

// HTTP: POST /api/aiagent
func (h *AIHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	answer, err := h.assistant.Ask(r.Context(), userID, req.Question)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"aiResponse": answer})
}

// multipart overhead allowed on top of the resume itself
const multipartSlack = 64 << 10

// HandleAnalyzeResume scores an uploaded PDF resume against a job category.
//
// HTTP: POST /api/resume/analyze (multipart: resume, category)
func (h *AIHandler) HandleAnalyzeResume(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxResumeBytes+multipartSlack)
	if err := r.ParseMultipartForm(service.MaxResumeBytes + multipartSlack); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, h.logger, apperror.ValidationFailed("resume", "resume must be at most 5 MB"))
			return
		}
		writeError(w, r, h.logger, apperror.ValidationFailed("resume", "No PDF file uploaded"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("resume")
	if err != nil {
		writeError(w, r, h.logger, apperror.ValidationFailed("resume", "No PDF file uploaded"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxResumeBytes+1))
	if err != nil {
		writeError(w, r, h.logger, apperror.ValidationFailed("resume", "could not read the uploaded file"))
		return
	}

	analysis, err := h.resumes.Analyze(r.Context(), userID, r.FormValue("category"), data)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// HTTP: GET /api/resume
func (h *AIHandler) HandleGetResume(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resume, err := h.resumes.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resume)
}

type roadmapRequest struct {
	Goal                 string `json:"goal"                 validate:"required"`
	SkillLevel           string `json:"skillLevel"           validate:"required"`
	AvailableTimePerWeek string `json:"availableTimePerWeek" validate:"required"`
	LearningStyle        string `json:"learningStyle"        validate:"required"`
}

// HTTP: POST /api/roadmap
func (h *AIHandler) HandleRoadmap(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req roadmapRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	roadmap, err := h.roadmaps.Generate(r.Context(), ai.RoadmapInput{
		Goal:                 req.Goal,
		SkillLevel:           req.SkillLevel,
		AvailableTimePerWeek: req.AvailableTimePerWeek,
		LearningStyle:        req.LearningStyle,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, roadmap)
}
