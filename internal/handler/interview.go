package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/service"
)

// InterviewHandler serves AI mock interviews. Every single-interview route
// is limited to the interview's owner by the service.
type InterviewHandler struct {
	interviews *service.InterviewService
	logger     *slog.Logger
}

func NewInterviewHandler(interviews *service.InterviewService, logger *slog.Logger) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, logger: logger}
}

type createInterviewRequest struct {
	JobRole         string `json:"jobRole"         validate:"required"`
	JobDescription  string `json:"jobDescription"  validate:"required"`
	ExperienceLevel string `json:"experienceLevel" validate:"required"`
}

type submitAnswerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	UserAnswer string `json:"userAnswer" validate:"required"`
}

type expressionRequest struct {
	InterviewID string `json:"interviewId" validate:"required"`
	Confidence  int    `json:"confidence"  validate:"min=0,max=100"`
	EyeContact  int    `json:"eyecontact"  validate:"min=0,max=100"`
}

// interviewResponse carries an interview plus parse warnings.
type interviewResponse struct {
	Interview *model.Interview `json:"interview"`
	Warnings  []string         `json:"warnings,omitempty"`
}

// HTTP: POST /api/aiinterview/create
func (h *InterviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req createInterviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.interviews.Create(r.Context(), userID, service.InterviewInput{
		JobRole:         req.JobRole,
		JobDescription:  req.JobDescription,
		ExperienceLevel: req.ExperienceLevel,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"newInterview": res.Interview, "warnings": res.Warnings})
}

// HTTP: GET /api/aiinterview/get/{id}
func (h *InterviewHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	iv, err := h.interviews.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

// HTTP: GET /api/aiinterview/getUserInterviews
func (h *InterviewHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.interviews.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HTTP: POST /api/aiinterview/{id}/submitAns
func (h *InterviewHandler) HandleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req submitAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.interviews.SubmitAnswer(r.Context(), userID, r.PathValue("id"), req.QuestionID, req.UserAnswer)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, interviewResponse{Interview: res.Interview, Warnings: res.Warnings})
}

// HTTP: POST /api/aiinterview/expression
func (h *InterviewHandler) HandleExpression(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req expressionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	iv, err := h.interviews.SetExpression(r.Context(), userID, req.InterviewID, req.Confidence, req.EyeContact)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, interviewResponse{Interview: iv})
}

// HTTP: POST /api/aiinterview/reset/{id}
func (h *InterviewHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	iv, err := h.interviews.Reset(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, interviewResponse{Interview: iv})
}

// HTTP: DELETE /api/aiinterview/interview/{id}
func (h *InterviewHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.interviews.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Interview deleted successfully"})
}
