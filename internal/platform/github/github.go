// Package github fetches a user's public GitHub activity: profile, owned
// repositories, PR and issue totals, starred repositories and the
// contribution calendar.
package github

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/platform"
)

const DefaultBaseURL = "https://api.github.com"

type Config struct {
	BaseURL string // REST root; GraphQL is BaseURL + "/graphql"
	// Token is sent as a Bearer token. The GraphQL API rejects anonymous
	// calls, so without a token the contribution calendar is skipped.
	Token      string
	HTTPClient *http.Client // optional; its Transport is wrapped when Token is set
}

type Adapter struct {
	client  *platform.Client
	baseURL string
	graphQL bool
}

var _ platform.Adapter = (*Adapter)(nil)

func New(cfg Config) *Adapter {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: platform.DefaultTimeout}
	}
	if cfg.Token != "" {
		authed := *hc
		authed.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
			Base:   hc.Transport,
		}
		hc = &authed
	}

	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	header.Set("User-Agent", "codeminder")
	header.Set("X-GitHub-Api-Version", "2022-11-28")

	return &Adapter{
		client:  platform.NewClient(hc, header),
		baseURL: base,
		graphQL: cfg.Token != "",
	}
}

func (a *Adapter) Platform() model.Platform { return model.PlatformGitHub }

// Fetch runs every sub-request concurrently. The first failure cancels the
// rest and fails the whole fetch.
func (a *Adapter) Fetch(ctx context.Context, handle string) (*model.PlatformStats, error) {
	if err := platform.RequireHandle(handle); err != nil {
		return nil, err
	}

	var (
		profile       userResponse
		repos         []repoResponse
		prs, issues   searchResponse
		starred       int
		contributions *contributionsCollection
	)
	user := url.PathEscape(handle)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.rest(gctx, "/users/"+user, &profile)
	})
	g.Go(func() error {
		return a.rest(gctx, "/users/"+user+"/repos?per_page=100&type=owner", &repos)
	})
	g.Go(func() error {
		return a.search(gctx, "author:"+handle+" is:pr", &prs)
	})
	g.Go(func() error {
		return a.search(gctx, "author:"+handle+" is:issue", &issues)
	})
	g.Go(func() error {
		n, err := a.starredCount(gctx, user)
		starred = n
		return err
	})
	if a.graphQL {
		g.Go(func() error {
			c, err := a.contributions(gctx, handle)
			contributions = c
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, platform.Classify(model.PlatformGitHub, handle, err)
	}

	stats := normalize(handle, profile, repos, prs, issues, starred, contributions)
	if err := stats.Validate(); err != nil {
		return nil, platform.Classify(model.PlatformGitHub, handle, err)
	}
	return stats, nil
}

func (a *Adapter) rest(ctx context.Context, path string, out any) error {
	err := a.client.GetJSON(ctx, a.baseURL+path, out)
	if platform.HasStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%s: %w", path, platform.ErrHandleNotFound)
	}
	return err
}

// starredCount asks for one starred repository per page, so the page number
// of the rel="last" link is the total. Without a Link header there is at most
// one page and the item count is the total.
func (a *Adapter) starredCount(ctx context.Context, user string) (int, error) {
	path := "/users/" + user + "/starred?per_page=1"
	var page []struct{}
	header, err := a.client.GetJSONWithHeader(ctx, a.baseURL+path, &page)
	if platform.HasStatus(err, http.StatusNotFound) {
		return 0, fmt.Errorf("%s: %w", path, platform.ErrHandleNotFound)
	}
	if err != nil {
		return 0, err
	}
	if last, ok := lastPage(header.Get("Link")); ok {
		return last, nil
	}
	return len(page), nil
}

// lastPage extracts the page parameter of the rel="last" entry of a Link header.
func lastPage(link string) (int, bool) {
	for part := range strings.SplitSeq(link, ",") {
		target, params, ok := strings.Cut(strings.TrimSpace(part), ";")
		if !ok || !strings.Contains(params, `rel="last"`) {
			continue
		}
		u, err := url.Parse(strings.Trim(strings.TrimSpace(target), "<>"))
		if err != nil {
			return 0, false
		}
		n, err := strconv.Atoi(u.Query().Get("page"))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// search returns only the total count; GitHub answers 422 when the author
// qualifier names a user that does not exist.
func (a *Adapter) search(ctx context.Context, q string, out *searchResponse) error {
	path := "/search/issues?" + url.Values{"q": {q}, "per_page": {"1"}}.Encode()
	err := a.client.GetJSON(ctx, a.baseURL+path, out)
	if platform.HasStatus(err, http.StatusUnprocessableEntity) {
		return fmt.Errorf("search %q: %w", q, platform.ErrHandleNotFound)
	}
	return err
}

const contributionsQuery = `query($login: String!) {
  user(login: $login) {
    contributionsCollection {
      totalCommitContributions
      contributionCalendar {
        totalContributions
        weeks { contributionDays { date contributionCount } }
      }
    }
  }
}`

func (a *Adapter) contributions(ctx context.Context, handle string) (*contributionsCollection, error) {
	var resp graphQLResponse
	body := map[string]any{
		"query":     contributionsQuery,
		"variables": map[string]string{"login": handle},
	}
	if err := a.client.PostJSON(ctx, a.baseURL+"/graphql", body, &resp); err != nil {
		return nil, err
	}
	if resp.Data.User == nil {
		if len(resp.Errors) > 0 && resp.Errors[0].Type != "NOT_FOUND" {
			return nil, fmt.Errorf("graphql: %s", resp.Errors[0].Message)
		}
		return nil, fmt.Errorf("graphql user: %w", platform.ErrHandleNotFound)
	}
	return &resp.Data.User.ContributionsCollection, nil
}

func normalize(
	handle string,
	profile userResponse,
	repos []repoResponse,
	prs, issues searchResponse,
	starred int,
	contributions *contributionsCollection,
) *model.PlatformStats {
	extras := &model.GitHubExtras{
		Name:         profile.Name,
		AvatarURL:    profile.AvatarURL,
		Followers:    profile.Followers,
		PublicRepos:  profile.PublicRepos,
		Starred:      starred,
		PullRequests: prs.TotalCount,
		Issues:       issues.TotalCount,
	}

	topics := map[string]int{}
	for _, r := range repos {
		extras.Stars += r.StargazersCount
		for _, t := range r.Topics {
			topics[t]++
		}
	}
	extras.Languages = languageShares(repos)

	calendar := map[string]int{}
	if contributions != nil {
		// Commits come only from the aggregate figure; per-repo history
		// would count the same commits twice.
		extras.Commits = contributions.TotalCommitContributions
		extras.TotalContributions = contributions.ContributionCalendar.TotalContributions
		for _, w := range contributions.ContributionCalendar.Weeks {
			for _, d := range w.ContributionDays {
				if d.ContributionCount > 0 {
					calendar[d.Date] = d.ContributionCount
				}
			}
		}
		extras.ActiveDays = len(calendar)
	}

	username := profile.Login
	if username == "" {
		username = handle
	}
	return &model.PlatformStats{
		Platform: model.PlatformGitHub,
		Username: username,
		Calendar: calendar,
		Topics:   topics,
		GitHub:   extras,
	}
}

// languageShares weights each repository's primary language by its size and
// returns percentages rounded to two decimals, largest first.
func languageShares(repos []repoResponse) []model.LanguageShare {
	sizes := map[string]int{}
	total := 0
	for _, r := range repos {
		if r.Language == "" {
			continue
		}
		sizes[r.Language] += r.Size
		total += r.Size
	}
	shares := []model.LanguageShare{}
	if total == 0 {
		return shares
	}
	for lang, size := range sizes {
		pct := float64(size) / float64(total) * 100
		shares = append(shares, model.LanguageShare{Name: lang, Percentage: math.Round(pct*100) / 100})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Percentage != shares[j].Percentage {
			return shares[i].Percentage > shares[j].Percentage
		}
		return shares[i].Name < shares[j].Name
	})
	return shares
}
