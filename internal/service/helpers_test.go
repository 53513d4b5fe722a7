package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sakif/codeminder/internal/ai"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository/sqlite"
)

// =========================================================================
// SHARED FAKES AND HELPERS
// =========================================================================

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestStore returns a migrated in-memory database closed at test end.
func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *sqlite.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Name: "Test User", Email: email, PasswordHash: "$2a$04$notarealhash"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// fakeModel answers prompts through reply, which sees the prompt and the
// requested format. It is safe for concurrent use.
type fakeModel struct {
	mu      sync.Mutex
	prompts []string
	calls   atomic.Int32
	reply   func(prompt string, format ai.Format) (string, error)
}

func (m *fakeModel) Generate(_ context.Context, prompt string, format ai.Format) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.reply(prompt, format)
}

// lastPrompt returns the most recent prompt containing substr.
func (m *fakeModel) lastPrompt(substr string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.prompts) - 1; i >= 0; i-- {
		if strings.Contains(m.prompts[i], substr) {
			return m.prompts[i]
		}
	}
	return ""
}

func replyWith(text string) func(string, ai.Format) (string, error) {
	return func(string, ai.Format) (string, error) { return text, nil }
}
