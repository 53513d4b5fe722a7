// Package codeforces fetches rating and solved problems from the
// Codeforces public API and buckets solved problems by difficulty.
package codeforces

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/platform"
)

const DefaultBaseURL = "https://codeforces.com/api"

// Rating thresholds for the difficulty buckets (inclusive upper bounds).
const (
	EasyMaxRating   = 1200
	MediumMaxRating = 2000
)

const unrated = "Unrated"

type Adapter struct {
	client  *platform.Client
	baseURL string
}

var _ platform.Adapter = (*Adapter)(nil)

func New(baseURL string, hc *http.Client) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Adapter{
		client:  platform.NewClient(hc, http.Header{"User-Agent": {"codeminder"}}),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (a *Adapter) Platform() model.Platform { return model.PlatformCodeforces }

func (a *Adapter) Fetch(ctx context.Context, handle string) (*model.PlatformStats, error) {
	if err := platform.RequireHandle(handle); err != nil {
		return nil, err
	}

	var (
		users       []userInfo
		submissions []submission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.call(gctx, "user.info", url.Values{"handles": {handle}}, &users)
	})
	g.Go(func() error {
		return a.call(gctx, "user.status", url.Values{"handle": {handle}}, &submissions)
	})
	if err := g.Wait(); err != nil {
		return nil, platform.Classify(model.PlatformCodeforces, handle, err)
	}
	if len(users) == 0 {
		return nil, platform.Classify(model.PlatformCodeforces, handle, platform.ErrHandleNotFound)
	}

	stats := normalize(users[0], submissions)
	if err := stats.Validate(); err != nil {
		return nil, platform.Classify(model.PlatformCodeforces, handle, err)
	}
	return stats, nil
}

// call invokes one API method. Codeforces reports failures in the body as
// {"status":"FAILED","comment":...}, usually with HTTP 400.
func (a *Adapter) call(ctx context.Context, method string, params url.Values, result any) error {
	env := envelope{Result: result}
	err := a.client.GetJSON(ctx, a.baseURL+"/"+method+"?"+params.Encode(), &env)

	var se *platform.StatusError
	if errors.As(err, &se) {
		if strings.Contains(strings.ToLower(se.Body), "not found") {
			return fmt.Errorf("%s: %w", method, platform.ErrHandleNotFound)
		}
		return err
	}
	if err != nil {
		return err
	}
	if env.Status != "OK" {
		if strings.Contains(strings.ToLower(env.Comment), "not found") {
			return fmt.Errorf("%s: %w", method, platform.ErrHandleNotFound)
		}
		return fmt.Errorf("%s: status %s: %s", method, env.Status, env.Comment)
	}
	return nil
}

// Bucket maps a problem rating to a difficulty.
func Bucket(rating int) string {
	switch {
	case rating <= EasyMaxRating:
		return model.DifficultyEasy
	case rating <= MediumMaxRating:
		return model.DifficultyMedium
	default:
		return model.DifficultyHard
	}
}

func normalize(user userInfo, subs []submission) *model.PlatformStats {
	var (
		counts   model.SolvedCounts
		topics   = map[string]int{}
		calendar = map[string]int{}
		seen     = map[string]bool{}
	)

	for _, s := range subs {
		if s.Verdict != "OK" {
			continue
		}
		calendar[model.DayKey(time.Unix(s.CreationTimeSeconds, 0))]++

		key := fmt.Sprintf("%d-%s", s.Problem.ContestID, s.Problem.Index)
		if seen[key] {
			continue
		}
		seen[key] = true

		for _, tag := range s.Problem.Tags {
			topics[tag]++
		}
		if s.Problem.Rating == 0 {
			continue // unrated problems are not bucketed
		}
		switch Bucket(s.Problem.Rating) {
		case model.DifficultyEasy:
			counts.Easy++
		case model.DifficultyMedium:
			counts.Medium++
		default:
			counts.Hard++
		}
	}
	counts.All = counts.Easy + counts.Medium + counts.Hard

	rank, maxRank := user.Rank, user.MaxRank
	if rank == "" {
		rank = unrated
	}
	if maxRank == "" {
		maxRank = unrated
	}

	return &model.PlatformStats{
		Platform: model.PlatformCodeforces,
		Username: user.Handle,
		Calendar: calendar,
		Solved:   counts,
		Topics:   topics,
		Codeforces: &model.CodeforcesExtras{
			Rating:    user.Rating,
			MaxRating: user.MaxRating,
			Rank:      rank,
			MaxRank:   maxRank,
		},
	}
}
