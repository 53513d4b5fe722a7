// Package leetcode fetches solved counts, the submission calendar, topic
// counts and badges from LeetCode's public GraphQL endpoint.
package leetcode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/platform"
)

const DefaultEndpoint = "https://leetcode.com/graphql"

// LeetCode rejects requests that do not look like they come from a browser.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

type Adapter struct {
	client   *platform.Client
	endpoint string
}

var _ platform.Adapter = (*Adapter)(nil)

func New(endpoint string, hc *http.Client) *Adapter {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	header := http.Header{}
	header.Set("Referer", "https://leetcode.com/")
	header.Set("User-Agent", browserUserAgent)
	return &Adapter{
		client:   platform.NewClient(hc, header),
		endpoint: endpoint,
	}
}

func (a *Adapter) Platform() model.Platform { return model.PlatformLeetCode }

func (a *Adapter) Fetch(ctx context.Context, handle string) (*model.PlatformStats, error) {
	if err := platform.RequireHandle(handle); err != nil {
		return nil, err
	}

	var (
		solved   *solvedUser
		calendar *calendarUser
		topics   *topicsUser
		badges   *badgesUser
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		solved, err = query[solvedUser](gctx, a, solvedQuery, handle)
		return err
	})
	g.Go(func() (err error) {
		calendar, err = query[calendarUser](gctx, a, calendarQuery, handle)
		return err
	})
	g.Go(func() (err error) {
		topics, err = query[topicsUser](gctx, a, topicsQuery, handle)
		return err
	})
	g.Go(func() (err error) {
		badges, err = query[badgesUser](gctx, a, badgesQuery, handle)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, platform.Classify(model.PlatformLeetCode, handle, err)
	}

	stats, err := normalize(handle, solved, calendar, topics, badges)
	if err == nil {
		err = stats.Validate()
	}
	if err != nil {
		return nil, platform.Classify(model.PlatformLeetCode, handle, err)
	}
	return stats, nil
}

// query runs one GraphQL document against matchedUser(username).
func query[T any](ctx context.Context, a *Adapter, doc, handle string) (*T, error) {
	var resp struct {
		Data struct {
			MatchedUser *T `json:"matchedUser"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	body := map[string]any{
		"query":     doc,
		"variables": map[string]string{"username": handle},
	}
	if err := a.client.PostJSON(ctx, a.endpoint, body, &resp); err != nil {
		return nil, err
	}
	if resp.Data.MatchedUser == nil {
		if len(resp.Errors) > 0 && !strings.Contains(strings.ToLower(resp.Errors[0].Message), "does not exist") {
			return nil, fmt.Errorf("leetcode graphql: %s", resp.Errors[0].Message)
		}
		return nil, fmt.Errorf("matchedUser: %w", platform.ErrHandleNotFound)
	}
	return resp.Data.MatchedUser, nil
}

func normalize(handle string, s *solvedUser, c *calendarUser, t *topicsUser, b *badgesUser) (*model.PlatformStats, error) {
	var counts model.SolvedCounts
	for _, n := range s.SubmitStatsGlobal.AcSubmissionNum {
		switch n.Difficulty {
		case "All":
			counts.All = n.Count
		case model.DifficultyEasy:
			counts.Easy = n.Count
		case model.DifficultyMedium:
			counts.Medium = n.Count
		case model.DifficultyHard:
			counts.Hard = n.Count
		}
	}

	calendar, err := parseSubmissionCalendar(c.UserCalendar.SubmissionCalendar)
	if err != nil {
		return nil, err
	}

	topics := map[string]int{}
	for _, tier := range [][]tagCount{t.TagProblemCounts.Advanced, t.TagProblemCounts.Intermediate, t.TagProblemCounts.Fundamental} {
		for _, tc := range tier {
			topics[tc.TagName] += tc.ProblemsSolved
		}
	}

	badges := make([]model.Badge, 0, len(b.Badges))
	for _, bd := range b.Badges {
		badges = append(badges, model.Badge{ID: bd.ID, Name: bd.DisplayName, Icon: absoluteIcon(bd.Icon)})
	}

	username := s.Username
	if username == "" {
		username = handle
	}
	return &model.PlatformStats{
		Platform: model.PlatformLeetCode,
		Username: username,
		Calendar: calendar,
		Solved:   counts,
		Topics:   topics,
		LeetCode: &model.LeetCodeExtras{
			Badges:          badges,
			TotalActiveDays: c.UserCalendar.TotalActiveDays,
			Streak:          c.UserCalendar.Streak,
		},
	}, nil
}

// parseSubmissionCalendar decodes LeetCode's calendar, a JSON object encoded
// as a string and keyed by unix seconds, into UTC day keys.
func parseSubmissionCalendar(raw string) (map[string]int, error) {
	out := map[string]int{}
	if raw == "" {
		return out, nil
	}
	var bySecond map[string]int
	if err := json.Unmarshal([]byte(raw), &bySecond); err != nil {
		return nil, fmt.Errorf("submission calendar: %w", err)
	}
	for ts, n := range bySecond {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("submission calendar key %q: %w", ts, err)
		}
		if n > 0 {
			out[model.DayKey(time.Unix(sec, 0))] += n
		}
	}
	return out, nil
}

func absoluteIcon(icon string) string {
	if strings.HasPrefix(icon, "/") {
		return "https://leetcode.com" + icon
	}
	return icon
}
