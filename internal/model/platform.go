package model

import (
	"errors"
	"fmt"
	"time"
)

// Platform names an external coding platform we aggregate statistics from.
type Platform string

const (
	PlatformGitHub     Platform = "github"
	PlatformLeetCode   Platform = "leetcode"
	PlatformCodeforces Platform = "codeforces"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{PlatformGitHub, PlatformLeetCode, PlatformCodeforces}

// ParsePlatform converts a URL segment into a Platform.
func ParsePlatform(s string) (Platform, bool) {
	for _, p := range Platforms {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// CalendarDayLayout is the key format of PlatformStats.Calendar (UTC days).
const CalendarDayLayout = "2006-01-02"

// Difficulty buckets used by SolvedCounts and by questions.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// SolvedCounts is the number of distinct solved problems per difficulty.
type SolvedCounts struct {
	All    int `json:"all"`
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// PlatformStats is the normalized snapshot payload produced by a platform
// adapter. It is a tagged record: exactly one of GitHub, LeetCode or
// Codeforces is set, and it must match Platform.
type PlatformStats struct {
	Platform Platform       `json:"platform"`
	Username string         `json:"username"`
	Calendar map[string]int `json:"submissionCalendar"` // "2006-01-02" -> submissions/contributions
	Solved   SolvedCounts   `json:"solved"`
	Topics   map[string]int `json:"topics"` // tag -> count

	GitHub     *GitHubExtras     `json:"github,omitempty"`
	LeetCode   *LeetCodeExtras   `json:"leetcode,omitempty"`
	Codeforces *CodeforcesExtras `json:"codeforces,omitempty"`
}

type GitHubExtras struct {
	Name               string          `json:"name"`
	AvatarURL          string          `json:"avatarUrl"`
	Followers          int             `json:"followers"`
	PublicRepos        int             `json:"publicRepos"`
	Stars              int             `json:"stars"`   // stargazers across owned repositories
	Starred            int             `json:"starred"` // repositories the user has starred
	Commits            int             `json:"commits"`
	PullRequests       int             `json:"pullRequests"`
	Issues             int             `json:"issues"`
	TotalContributions int             `json:"totalContributions"`
	ActiveDays         int             `json:"activeDays"`
	Languages          []LanguageShare `json:"languages"`
}

// LanguageShare is one language's share of the user's repository bytes.
type LanguageShare struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

type LeetCodeExtras struct {
	Badges          []Badge `json:"badges"`
	TotalActiveDays int     `json:"totalActiveDays"`
	Streak          int     `json:"streak"`
}

type Badge struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type CodeforcesExtras struct {
	Rating    int    `json:"rating"`
	MaxRating int    `json:"maxRating"`
	Rank      string `json:"rank"`
	MaxRank   string `json:"maxRank"`
}

// Validate checks the tagged-record shape. Adapters call it before
// returning so nothing malformed reaches the snapshot store.
func (s *PlatformStats) Validate() error {
	if s == nil {
		return errors.New("stats: nil")
	}
	if s.Username == "" {
		return errors.New("stats: username is empty")
	}
	if s.Calendar == nil {
		s.Calendar = map[string]int{}
	}
	if s.Topics == nil {
		s.Topics = map[string]int{}
	}
	for day, n := range s.Calendar {
		if _, err := time.Parse(CalendarDayLayout, day); err != nil {
			return fmt.Errorf("stats: calendar key %q is not a day", day)
		}
		if n < 0 {
			return fmt.Errorf("stats: negative count on %s", day)
		}
	}
	if s.Solved.Easy < 0 || s.Solved.Medium < 0 || s.Solved.Hard < 0 || s.Solved.All < 0 {
		return errors.New("stats: negative solved count")
	}

	set := 0
	if s.GitHub != nil {
		set++
	}
	if s.LeetCode != nil {
		set++
	}
	if s.Codeforces != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("stats: expected exactly one platform extras block, got %d", set)
	}

	switch s.Platform {
	case PlatformGitHub:
		if s.GitHub == nil {
			return errors.New("stats: github extras missing")
		}
	case PlatformLeetCode:
		if s.LeetCode == nil {
			return errors.New("stats: leetcode extras missing")
		}
	case PlatformCodeforces:
		if s.Codeforces == nil {
			return errors.New("stats: codeforces extras missing")
		}
	default:
		return fmt.Errorf("stats: unknown platform %q", s.Platform)
	}
	return nil
}

// Snapshot is the cached copy of one user's stats on one platform.
// There is at most one Snapshot per (UserID, Platform); refreshes replace it whole.
type Snapshot struct {
	UserID string `json:"-"`
	// Handle is the linked handle the stats were fetched for. It can differ
	// in case from Stats.Username, which is the platform's canonical login.
	Handle      string        `json:"-"`
	Platform    Platform      `json:"platform"`
	Stats       PlatformStats `json:"stats"`
	LastUpdated time.Time     `json:"lastUpdated"`
}

// FreshAt reports whether the snapshot is still inside window at now.
func (s *Snapshot) FreshAt(now time.Time, window time.Duration) bool {
	return now.Sub(s.LastUpdated) < window
}

// DayKey formats a timestamp as a calendar key.
func DayKey(t time.Time) string {
	return t.UTC().Format(CalendarDayLayout)
}
