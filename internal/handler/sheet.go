package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/service"
)

// SheetHandler serves practice sheets and the caller's progress on them.
type SheetHandler struct {
	sheets *service.SheetService
	logger *slog.Logger
}

func NewSheetHandler(sheets *service.SheetService, logger *slog.Logger) *SheetHandler {
	return &SheetHandler{sheets: sheets, logger: logger}
}

type createSheetRequest struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"  validate:"omitempty,oneof=Public Private"`
}

type sheetRequest struct {
	SheetID string `json:"sheetId" validate:"required"`
}

type markSolvedRequest struct {
	SheetID    string `json:"sheetId"    validate:"required"`
	QuestionID string `json:"questionId" validate:"required"`
}

// HTTP: POST /api/sheets/create
func (h *SheetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req createSheetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	sheet, err := h.sheets.Create(r.Context(), userID, service.SheetInput{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  model.Visibility(req.Visibility),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Sheet created successfully.", "sheet": sheet})
}

// HTTP: GET /api/sheets
func (h *SheetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	sheets, err := h.sheets.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sheets)
}

// HTTP: POST /api/sheets/follow
func (h *SheetHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req sheetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.sheets.ToggleFollow(r.Context(), userID, req.SheetID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HTTP: POST /api/sheets/details
func (h *SheetHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req sheetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	details, err := h.sheets.Details(r.Context(), userID, req.SheetID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// HTTP: GET /api/sheets/followed/list
func (h *SheetHandler) HandleFollowed(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	sheets, err := h.sheets.Followed(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sheets)
}

// HTTP: GET /api/sheets/solved
func (h *SheetHandler) HandleSolved(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	solved, err := h.sheets.Solved(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, solved)
}

// HTTP: POST /api/sheets/question/mark-solved
func (h *SheetHandler) HandleMarkSolved(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req markSolvedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.sheets.ToggleSolved(r.Context(), userID, req.SheetID, req.QuestionID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleImport appends the remote sheet's questions to one of the caller's sheets.
//
// HTTP: POST /api/sheets/fetch-and-add-questions
func (h *SheetHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req sheetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.sheets.ImportFromSource(r.Context(), userID, req.SheetID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
