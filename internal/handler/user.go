package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/service"
)

// UserHandler serves signup, login and the caller's own profile.
type UserHandler struct {
	auth   *service.AuthService
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(auth *service.AuthService, users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{auth: auth, users: users, logger: logger}
}

type signupRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleSignup registers an account and returns {user, token}.
//
// HTTP: POST /api/user/signup
func (h *UserHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	result, err := h.auth.Signup(r.Context(), service.SignupInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin checks credentials and returns {user, token}.
//
// HTTP: POST /api/user/login
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleMe returns the authenticated user.
//
// HTTP: GET /api/user
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type editProfileRequest struct {
	Name          string `json:"name"`
	GitHub        string `json:"github"`
	LeetCode      string `json:"leetcode"`
	Codeforces    string `json:"codeforces"`
	GeeksForGeeks string `json:"geeksforgeeks"`
}

// HandleEdit updates the name and platform handles. Empty fields keep
// their current value.
//
// HTTP: PUT /api/user/edit
func (h *UserHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req editProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Name: req.Name,
		Handles: model.Handles{
			GitHub:        req.GitHub,
			LeetCode:      req.LeetCode,
			Codeforces:    req.Codeforces,
			GeeksForGeeks: req.GeeksForGeeks,
		},
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
