package platform

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
)

// =========================================================================
// CLIENT TESTS
// =========================================================================

func TestClient_GetJSON_SendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "codeminder-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"ada"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), http.Header{"User-Agent": {"codeminder-test"}})

	var out struct{ Name string }
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "ada", out.Name)
}

func TestClient_GetJSONWithHeader_ReturnsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", `<https://x/?page=3>; rel="last"`)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var out []struct{}
	header, err := NewClient(srv.Client(), nil).GetJSONWithHeader(context.Background(), srv.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, `<https://x/?page=3>; rel="last"`, header.Get("Link"))
}

func TestClient_PostJSON_EncodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		json.NewEncoder(w).Encode(map[string]string{"echo": in["q"]})
	}))
	defer srv.Close()

	var out struct{ Echo string }
	err := NewClient(nil, nil).PostJSON(context.Background(), srv.URL, map[string]string{"q": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.Echo)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"Not Found"}`)
	}))
	defer srv.Close()

	var out struct{}
	err := NewClient(srv.Client(), nil).GetJSON(context.Background(), srv.URL+"/users/ghost", &out)
	require.Error(t, err)
	assert.True(t, HasStatus(err, http.StatusNotFound))
	assert.False(t, HasStatus(err, http.StatusInternalServerError))
	assert.Contains(t, err.Error(), "Not Found")
}

// =========================================================================
// CLASSIFY TESTS
// =========================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", ErrHandleNotFound, apperror.ErrNotFound},
		{"wrapped not found", errors.Join(errors.New("profile"), ErrHandleNotFound), apperror.ErrNotFound},
		{"network", errors.New("connection reset"), apperror.ErrUpstream},
		{"already classified", apperror.ValidationFailed("handle", "bad"), apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(model.PlatformGitHub, "octocat", tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}
	assert.NoError(t, Classify(model.PlatformGitHub, "octocat", nil))
}

func TestRequireHandle(t *testing.T) {
	assert.ErrorIs(t, RequireHandle("   "), apperror.ErrValidation)
	assert.NoError(t, RequireHandle("tourist"))
}

// =========================================================================
// BREAKER TESTS
// =========================================================================

type stubAdapter struct {
	calls int
	err   error
}

func (s *stubAdapter) Platform() model.Platform { return model.PlatformCodeforces }

func (s *stubAdapter) Fetch(ctx context.Context, handle string) (*model.PlatformStats, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &model.PlatformStats{Platform: model.PlatformCodeforces, Username: handle}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWithBreaker_OpensOnUpstreamFailures(t *testing.T) {
	stub := &stubAdapter{err: apperror.Upstream("codeforces", errors.New("503"))}
	a := WithBreaker(stub, BreakerSettings{MinRequests: 2, FailureRatio: 0.5, Timeout: time.Minute}, quietLogger())

	for range 2 {
		_, err := a.Fetch(context.Background(), "tourist")
		require.ErrorIs(t, err, apperror.ErrUpstream)
	}

	_, err := a.Fetch(context.Background(), "tourist")
	require.ErrorIs(t, err, apperror.ErrUpstream)
	assert.Equal(t, 2, stub.calls, "open breaker must not call the adapter")
}

func TestWithBreaker_NotFoundDoesNotTrip(t *testing.T) {
	stub := &stubAdapter{err: apperror.NotFound("codeforces user", "ghost")}
	a := WithBreaker(stub, BreakerSettings{MinRequests: 2, FailureRatio: 0.5}, quietLogger())

	for range 5 {
		_, err := a.Fetch(context.Background(), "ghost")
		require.ErrorIs(t, err, apperror.ErrNotFound)
	}
	assert.Equal(t, 5, stub.calls)
}

func TestWithBreaker_PassesResultThrough(t *testing.T) {
	a := WithBreaker(&stubAdapter{}, BreakerSettings{}, quietLogger())

	stats, err := a.Fetch(context.Background(), "tourist")
	require.NoError(t, err)
	assert.Equal(t, "tourist", stats.Username)
	assert.Equal(t, model.PlatformCodeforces, a.Platform())
}
