package leetcode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
)

func newLeetCodeServer(t *testing.T, failTopics bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://leetcode.com/", r.Header.Get("Referer"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")

		var req struct {
			Query     string            `json:"query"`
			Variables map[string]string `json:"variables"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}

		if req.Variables["username"] != "neal_wu" {
			w.Write([]byte(`{"data":{"matchedUser":null},"errors":[{"message":"That user does not exist."}]}`))
			return
		}

		switch {
		case strings.Contains(req.Query, "submitStatsGlobal"):
			w.Write([]byte(`{"data":{"matchedUser":{"username":"neal_wu","submitStatsGlobal":{"acSubmissionNum":[
				{"difficulty":"All","count":60},{"difficulty":"Easy","count":30},
				{"difficulty":"Medium","count":20},{"difficulty":"Hard","count":10}]}}}}`))
		case strings.Contains(req.Query, "userCalendar"):
			w.Write([]byte(`{"data":{"matchedUser":{"userCalendar":{"streak":2,"totalActiveDays":2,
				"submissionCalendar":"{\"1704067200\": 3, \"1704153600\": 2}"}}}}`))
		case strings.Contains(req.Query, "tagProblemCounts"):
			if failTopics {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"data":{"matchedUser":{"tagProblemCounts":{
				"advanced":[{"tagName":"Dynamic Programming","problemsSolved":4}],
				"intermediate":[{"tagName":"Hash Table","problemsSolved":6},{"tagName":"Dynamic Programming","problemsSolved":1}],
				"fundamental":[{"tagName":"Array","problemsSolved":9}]}}}}`))
		case strings.Contains(req.Query, "badges"):
			w.Write([]byte(`{"data":{"matchedUser":{"badges":[{"id":"1","displayName":"50 Days","icon":"/static/b.png"}]}}}`))
		default:
			t.Errorf("unexpected query %q", req.Query)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_NormalizesEverything(t *testing.T) {
	srv := newLeetCodeServer(t, false)
	a := New(srv.URL, srv.Client())

	stats, err := a.Fetch(context.Background(), "neal_wu")
	require.NoError(t, err)

	assert.Equal(t, model.PlatformLeetCode, stats.Platform)
	assert.Equal(t, model.SolvedCounts{All: 60, Easy: 30, Medium: 20, Hard: 10}, stats.Solved)
	assert.Equal(t, map[string]int{"2024-01-01": 3, "2024-01-02": 2}, stats.Calendar)
	assert.Equal(t, map[string]int{"Dynamic Programming": 5, "Hash Table": 6, "Array": 9}, stats.Topics)

	require.NotNil(t, stats.LeetCode)
	assert.Equal(t, 2, stats.LeetCode.Streak)
	assert.Equal(t, 2, stats.LeetCode.TotalActiveDays)
	assert.Equal(t, []model.Badge{{ID: "1", Name: "50 Days", Icon: "https://leetcode.com/static/b.png"}}, stats.LeetCode.Badges)
}

func TestFetch_UnknownUser(t *testing.T) {
	srv := newLeetCodeServer(t, false)
	a := New(srv.URL, srv.Client())

	_, err := a.Fetch(context.Background(), "nobody_here")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFetch_OneFailureFailsAll(t *testing.T) {
	srv := newLeetCodeServer(t, true)
	a := New(srv.URL, srv.Client())

	stats, err := a.Fetch(context.Background(), "neal_wu")
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}

func TestParseSubmissionCalendar(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]int
		wantErr bool
	}{
		{"empty", "", map[string]int{}, false},
		{"zero counts dropped", `{"1704067200": 0}`, map[string]int{}, false},
		{"same day summed", `{"1704067200": 1, "1704070800": 2}`, map[string]int{"2024-01-01": 3}, false},
		{"not json", `{1704067200: 1`, nil, true},
		{"bad key", `{"yesterday": 1}`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSubmissionCalendar(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
