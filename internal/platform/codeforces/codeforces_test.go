package codeforces

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
)

const statusFixture = `{"status":"OK","result":[
	{"id":1,"creationTimeSeconds":1704067200,"verdict":"OK","problem":{"contestId":1,"index":"A","rating":1200,"tags":["math"]}},
	{"id":2,"creationTimeSeconds":1704067300,"verdict":"OK","problem":{"contestId":1,"index":"A","rating":1200,"tags":["math"]}},
	{"id":3,"creationTimeSeconds":1704153600,"verdict":"OK","problem":{"contestId":1,"index":"B","rating":1201,"tags":["dp","greedy"]}},
	{"id":4,"creationTimeSeconds":1704153600,"verdict":"OK","problem":{"contestId":2,"index":"C","rating":2000,"tags":["dp"]}},
	{"id":5,"creationTimeSeconds":1704153600,"verdict":"OK","problem":{"contestId":2,"index":"D","rating":2001,"tags":[]}},
	{"id":6,"creationTimeSeconds":1704153600,"verdict":"WRONG_ANSWER","problem":{"contestId":3,"index":"A","rating":800,"tags":["math"]}},
	{"id":7,"creationTimeSeconds":1704153600,"verdict":"OK","problem":{"contestId":4,"index":"E","tags":["graphs"]}}
]}`

func newCodeforcesServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user.info", func(w http.ResponseWriter, r *http.Request) {
		h := r.URL.Query().Get("handles")
		if h != "tourist" && h != "broken" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status":"FAILED","comment":"handles: User with handle ghost not found"}`))
			return
		}
		w.Write([]byte(`{"status":"OK","result":[{"handle":"` + h + `","rating":3800,"maxRating":3900,"rank":"legendary grandmaster","maxRank":"legendary grandmaster"}]}`))
	})
	mux.HandleFunc("GET /user.status", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("handle") {
		case "tourist":
			w.Write([]byte(statusFixture))
		case "broken":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status":"FAILED","comment":"handle: User with handle ghost not found"}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBucket_Boundaries(t *testing.T) {
	tests := []struct {
		rating int
		want   string
	}{
		{800, model.DifficultyEasy},
		{1200, model.DifficultyEasy},
		{1201, model.DifficultyMedium},
		{2000, model.DifficultyMedium},
		{2001, model.DifficultyHard},
		{3500, model.DifficultyHard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bucket(tt.rating), "rating %d", tt.rating)
	}
}

func TestFetch_NormalizesSubmissions(t *testing.T) {
	srv := newCodeforcesServer(t)
	a := New(srv.URL, srv.Client())

	stats, err := a.Fetch(context.Background(), "tourist")
	require.NoError(t, err)

	// 1-A counted once; 3-A is not OK; 4-E is unrated.
	assert.Equal(t, model.SolvedCounts{All: 4, Easy: 1, Medium: 2, Hard: 1}, stats.Solved)
	assert.Equal(t, map[string]int{"math": 1, "dp": 2, "greedy": 1, "graphs": 1}, stats.Topics)
	assert.Equal(t, map[string]int{"2024-01-01": 2, "2024-01-02": 4}, stats.Calendar)

	require.NotNil(t, stats.Codeforces)
	assert.Equal(t, 3800, stats.Codeforces.Rating)
	assert.Equal(t, "legendary grandmaster", stats.Codeforces.Rank)
}

func TestFetch_UnknownHandle(t *testing.T) {
	srv := newCodeforcesServer(t)
	a := New(srv.URL, srv.Client())

	_, err := a.Fetch(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFetch_UpstreamFailure(t *testing.T) {
	srv := newCodeforcesServer(t)
	a := New(srv.URL, srv.Client())

	stats, err := a.Fetch(context.Background(), "broken")
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}

func TestNormalize_UnratedDefaults(t *testing.T) {
	stats := normalize(userInfo{Handle: "newbie"}, nil)
	require.NoError(t, stats.Validate())
	assert.Equal(t, "Unrated", stats.Codeforces.Rank)
	assert.Equal(t, "Unrated", stats.Codeforces.MaxRank)
	assert.Zero(t, stats.Codeforces.Rating)
	assert.Zero(t, stats.Solved.All)
}
