package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/service"
)

// NoteHandler serves the caller's notes.
type NoteHandler struct {
	notes  *service.NoteService
	logger *slog.Logger
}

func NewNoteHandler(notes *service.NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, logger: logger}
}

// createNoteRequest accepts question_id as sent by the original web client.
type createNoteRequest struct {
	Type       string `json:"type"        validate:"required,oneof=question general"`
	QuestionID string `json:"question_id"`
	NoteName   string `json:"noteName"`
	Content    string `json:"content"     validate:"required"`
}

type updateNoteRequest struct {
	NoteID   string `json:"noteId"   validate:"required"`
	Content  string `json:"content"  validate:"required"`
	NoteName string `json:"noteName"`
}

// HTTP: POST /api/notes/create
func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req createNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	note, err := h.notes.Create(r.Context(), userID, service.NoteInput{
		Type:       model.NoteType(req.Type),
		QuestionID: req.QuestionID,
		Name:       req.NoteName,
		Content:    req.Content,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// HTTP: PUT /api/notes/update
func (h *NoteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req updateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	note, err := h.notes.Update(r.Context(), userID, req.NoteID, req.Content, req.NoteName)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HTTP: GET /api/notes/general
func (h *NoteHandler) HandleListGeneral(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	notes, err := h.notes.ListGeneral(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// HTTP: GET /api/notes/question
func (h *NoteHandler) HandleListQuestion(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	notes, err := h.notes.ListForQuestions(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// HTTP: GET /api/notes/{noteId}
func (h *NoteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	note, err := h.notes.Get(r.Context(), userID, r.PathValue("noteId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HTTP: DELETE /api/notes/{noteId}
func (h *NoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.notes.Delete(r.Context(), userID, r.PathValue("noteId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Note deleted successfully"})
}
