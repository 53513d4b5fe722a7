package handler_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codeminder/internal/ai"
	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/auth"
	"github.com/sakif/codeminder/internal/service"
)

// =========================================================================
// ASSISTANT CHAT TESTS
// =========================================================================

func TestAIHandler_HandleChat(t *testing.T) {
	f := newFixture(t)
	id := f.signup(t, "chat@example.com")

	t.Run("answers", func(t *testing.T) {
		f.model.answer("Practice dynamic programming daily.")
		rr := serve(t, f.aiHandler.HandleChat, request{
			method: http.MethodPost, target: "/api/aiagent", userID: id,
			body: map[string]string{"question": "How do I get better?"},
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "Practice dynamic programming daily.", decode[map[string]string](t, rr)["aiResponse"])
	})

	t.Run("missing question", func(t *testing.T) {
		rr := serve(t, f.aiHandler.HandleChat, request{
			method: http.MethodPost, target: "/api/aiagent", userID: id, body: map[string]string{},
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "question", decodeError(t, rr).Field)
	})

	t.Run("model failure is generic", func(t *testing.T) {
		f.model.set(func(string) (string, error) {
			return "", apperror.Upstream("ai model", errors.New("quota exceeded for project 1234"))
		})
		rr := serve(t, f.aiHandler.HandleChat, request{
			method: http.MethodPost, target: "/api/aiagent", userID: id,
			body: map[string]string{"question": "hello"},
		})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		res := decodeError(t, rr)
		assert.Equal(t, "upstream_error", res.Error)
		assert.NotContains(t, res.Message, "quota")
	})
}

// =========================================================================
// RESUME TESTS
// =========================================================================

func multipartRequest(t *testing.T, userID string, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("resume", "resume.pdf")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/resume/analyze", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: userID}))
}

func TestAIHandler_HandleAnalyzeResume(t *testing.T) {
	f := newFixture(t)
	id := f.signup(t, "resume@example.com")

	tests := []struct {
		name    string
		fields  map[string]string
		file    []byte
		wantMsg string
	}{
		{"no file", map[string]string{"category": "Backend Engineer"}, nil, "No PDF file uploaded"},
		{"no category", nil, []byte("%PDF-1.4"), "Job category is required"},
		{"not a pdf", map[string]string{"category": "Backend Engineer"}, []byte("plain text, not a pdf"), "could not read text from the PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			f.aiHandler.HandleAnalyzeResume(rr, multipartRequest(t, id, tt.fields, tt.file))

			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Equal(t, tt.wantMsg, decodeError(t, rr).Message)
		})
	}

	t.Run("not multipart", func(t *testing.T) {
		rr := serve(t, f.aiHandler.HandleAnalyzeResume, request{
			method: http.MethodPost, target: "/api/resume/analyze", userID: id, body: `{"resume": "x"}`,
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("oversized file", func(t *testing.T) {
		big := bytes.Repeat([]byte("a"), service.MaxResumeBytes+1)
		rr := httptest.NewRecorder()
		f.aiHandler.HandleAnalyzeResume(rr, multipartRequest(t, id, map[string]string{"category": "x"}, big))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "resume must be at most 5 MB", decodeError(t, rr).Message)
	})

	t.Run("no stored resume", func(t *testing.T) {
		rr := serve(t, f.aiHandler.HandleGetResume, request{method: http.MethodGet, target: "/api/resume", userID: id})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

// =========================================================================
// ROADMAP TESTS
// =========================================================================

func TestAIHandler_HandleRoadmap(t *testing.T) {
	f := newFixture(t)
	id := f.signup(t, "roadmap@example.com")
	body := map[string]string{
		"goal": "Backend developer", "skillLevel": "beginner",
		"availableTimePerWeek": "10 hours", "learningStyle": "projects",
	}

	t.Run("clean output", func(t *testing.T) {
		f.model.answer(`[{"stage": "Foundations", "topics_to_learn": ["Go"], "resources": ["Tour of Go"]}]`)
		rr := serve(t, f.aiHandler.HandleRoadmap, request{
			method: http.MethodPost, target: "/api/roadmap", userID: id, body: body,
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		res := decode[map[string]any](t, rr)
		assert.Len(t, res["roadmap"], 1)
		assert.NotContains(t, res, "warnings")
	})

	t.Run("repaired output carries a warning", func(t *testing.T) {
		f.model.answer("```json\n[{'stage': 'Foundations', 'topics_to_learn': ['Go'],}]\n```")
		rr := serve(t, f.aiHandler.HandleRoadmap, request{
			method: http.MethodPost, target: "/api/roadmap", userID: id, body: body,
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		res := decode[service.Roadmap](t, rr)
		require.Len(t, res.Stages, 1)
		assert.Equal(t, []string{ai.RepairWarning}, res.Warnings)
	})

	t.Run("unrepairable output", func(t *testing.T) {
		f.model.answer("Here is your roadmap!")
		rr := serve(t, f.aiHandler.HandleRoadmap, request{
			method: http.MethodPost, target: "/api/roadmap", userID: id, body: body,
		})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "malformed_ai_response", decodeError(t, rr).Error)
	})

	t.Run("missing field", func(t *testing.T) {
		rr := serve(t, f.aiHandler.HandleRoadmap, request{
			method: http.MethodPost, target: "/api/roadmap", userID: id,
			body: map[string]string{"goal": "x"},
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.True(t, strings.HasSuffix(decodeError(t, rr).Message, "is required"))
	})
}
