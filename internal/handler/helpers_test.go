package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/codeminder/internal/ai"
	"github.com/sakif/codeminder/internal/auth"
	"github.com/sakif/codeminder/internal/handler"
	"github.com/sakif/codeminder/internal/jobs"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/platform"
	"github.com/sakif/codeminder/internal/refresh"
	"github.com/sakif/codeminder/internal/repository/sqlite"
	"github.com/sakif/codeminder/internal/service"
)

// =========================================================================
// FAKES
// =========================================================================

type fakeModel struct {
	mu    sync.Mutex
	reply func(prompt string) (string, error)
}

func (m *fakeModel) Generate(_ context.Context, prompt string, _ ai.Format) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reply(prompt)
}

func (m *fakeModel) set(reply func(prompt string) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
}

func (m *fakeModel) answer(text string) {
	m.set(func(string) (string, error) { return text, nil })
}

type fakeAdapter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (a *fakeAdapter) Platform() model.Platform { return model.PlatformCodeforces }

func (a *fakeAdapter) Fetch(_ context.Context, handle string) (*model.PlatformStats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return &model.PlatformStats{
		Platform: model.PlatformCodeforces,
		Username: handle,
		Calendar: map[string]int{},
		Solved:   model.SolvedCounts{All: 3, Easy: 1, Medium: 1, Hard: 1},
		Topics:   map[string]int{"dp": 2},
	}, nil
}

type fakeSource struct {
	questions []model.Question
	err       error
}

func (s *fakeSource) Questions(context.Context) ([]model.Question, error) {
	return s.questions, s.err
}

type fakeSearcher struct {
	jobs []jobs.Job
	err  error
	got  string
}

func (s *fakeSearcher) Search(_ context.Context, category string) ([]jobs.Job, error) {
	s.got = category
	return s.jobs, s.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// =========================================================================
// FIXTURE
// =========================================================================

// fixture builds real services over an in-memory database, with the model,
// the platform adapter, the sheet source and the job board faked.
type fixture struct {
	db      *sqlite.DB
	model   *fakeModel
	adapter *fakeAdapter
	source  *fakeSource
	search  *fakeSearcher

	auth    *service.AuthService
	usersvc *service.UserService
	resumes *service.ResumeService

	users      *handler.UserHandler
	profiles   *handler.ProfileHandler
	sheets     *handler.SheetHandler
	notes      *handler.NoteHandler
	aiHandler  *handler.AIHandler
	interviews *handler.InterviewHandler
	jobs       *handler.JobsHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-32-characters-long", time.Hour)
	require.NoError(t, err)

	f := &fixture{
		db:      db,
		model:   &fakeModel{reply: func(string) (string, error) { return "", nil }},
		adapter: &fakeAdapter{},
		source:  &fakeSource{},
		search:  &fakeSearcher{},
	}

	coordinator := refresh.New(refresh.Options{Logger: logger})
	profiles := service.NewProfileService(db, db, []platform.Adapter{f.adapter},
		map[model.Platform]time.Duration{model.PlatformCodeforces: time.Hour}, coordinator, logger)

	f.auth = service.NewAuthService(db, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), logger)
	f.usersvc = service.NewUserService(db, logger)
	f.resumes = service.NewResumeService(f.model, db, logger)
	t.Cleanup(f.resumes.Wait)

	f.users = handler.NewUserHandler(f.auth, f.usersvc, logger)
	f.profiles = handler.NewProfileHandler(profiles, logger)
	f.sheets = handler.NewSheetHandler(service.NewSheetService(db, db, db, db, db, f.source, logger), logger)
	f.notes = handler.NewNoteHandler(service.NewNoteService(db, db, logger), logger)
	f.aiHandler = handler.NewAIHandler(
		service.NewAssistantService(f.model, db, profiles, db, logger),
		f.resumes,
		service.NewRoadmapService(f.model, logger),
		logger,
	)
	f.interviews = handler.NewInterviewHandler(service.NewInterviewService(f.model, db, logger), logger)
	f.jobs = handler.NewJobsHandler(f.search, logger)
	return f
}

// signup registers a user through the service and returns its id.
func (f *fixture) signup(t *testing.T, email string) string {
	t.Helper()
	res, err := f.auth.Signup(context.Background(), service.SignupInput{
		Name: "Test User", Email: email, Password: "correct-horse",
	})
	require.NoError(t, err)
	return res.User.ID
}

// =========================================================================
// REQUEST HELPERS
// =========================================================================

type request struct {
	method string
	target string
	userID string            // empty means unauthenticated
	body   any               // string bodies are sent as is, others as JSON
	path   map[string]string // path values as chi would set them
}

func serve(t *testing.T, h http.HandlerFunc, req request) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := req.body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	r := httptest.NewRequest(req.method, req.target, reader)
	r.Header.Set("Content-Type", "application/json")
	for k, v := range req.path {
		r.SetPathValue(k, v)
	}
	if req.userID != "" {
		r = r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: req.userID}))
	}

	rr := httptest.NewRecorder()
	h(rr, r)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out), "body: %s", rr.Body.String())
	return out
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	return decode[handler.ErrorResponse](t, rr)
}
