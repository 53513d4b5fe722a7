// Package config loads server configuration from the process environment.
//
// A .env file in the working directory is loaded first (if present) so local
// development does not need exported variables. Real environment variables
// always win over .env entries because godotenv.Load never overrides them.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Platforms PlatformConfig
	AI        AIConfig
	Redis     RedisConfig
	Sources   SourceConfig
	Mail      MailConfig
}

type ServerConfig struct {
	Port               int
	DBPath             string
	LogLevel           slog.Level
	CORSOrigins        []string
	RateLimitPerMinute int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// PlatformConfig configures the GitHub/LeetCode/Codeforces adapters and the
// freshness window of each platform's cached snapshot.
type PlatformConfig struct {
	GitHubToken         string
	GitHubAPIURL        string
	LeetCodeGraphQLURL  string
	CodeforcesAPIURL    string
	GitHubFreshness     time.Duration
	LeetCodeFreshness   time.Duration
	CodeforcesFreshness time.Duration
	UpstreamTimeout     time.Duration
}

type AIConfig struct {
	APIKey string
	Model  string
}

// RedisConfig is optional. With an empty Addr the refresh lock only
// deduplicates inside this process.
type RedisConfig struct {
	Addr     string
	Password string
	LockTTL  time.Duration
}

type SourceConfig struct {
	SheetURL    string
	ContestsURL string
	JobsBaseURL string
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Schedule string
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.From != ""
}

const (
	defaultSheetURL    = "https://node.codolio.com/api/question-tracker/v1/sheet/public/get-sheet-by-slug/striver-sde-sheet"
	defaultContestsURL = "https://node.codolio.com/api/contest-calendar/v1/all/get-upcoming-contests"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               GetEnv("PORT", 8080),
			DBPath:             GetEnv("DB_PATH", "data/codeminder.db"),
			LogLevel:           parseLevel(GetEnv("LOG_LEVEL", "info")),
			CORSOrigins:        parseList(GetEnv("CORS_ORIGINS", "*")),
			RateLimitPerMinute: GetEnv("RATE_LIMIT_PER_MINUTE", 120),
		},
		Auth: AuthConfig{
			JWTSecret: GetEnv("JWT_SECRET", ""),
			TokenTTL:  GetEnv("TOKEN_TTL", 24*time.Hour),
		},
		Platforms: PlatformConfig{
			GitHubToken:         GetEnv("GITHUB_TOKEN", ""),
			GitHubAPIURL:        GetEnv("GITHUB_API_URL", "https://api.github.com"),
			LeetCodeGraphQLURL:  GetEnv("LEETCODE_GRAPHQL_URL", "https://leetcode.com/graphql"),
			CodeforcesAPIURL:    GetEnv("CODEFORCES_API_URL", "https://codeforces.com/api"),
			GitHubFreshness:     GetEnv("GITHUB_FRESHNESS", 6*time.Hour),
			LeetCodeFreshness:   GetEnv("LEETCODE_FRESHNESS", 24*time.Hour),
			CodeforcesFreshness: GetEnv("CODEFORCES_FRESHNESS", 6*time.Hour),
			UpstreamTimeout:     GetEnv("UPSTREAM_TIMEOUT", 20*time.Second),
		},
		AI: AIConfig{
			APIKey: GetEnv("GEMINI_API_KEY", ""),
			Model:  GetEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_ADDR", ""),
			Password: GetEnv("REDIS_PASSWORD", ""),
			LockTTL:  GetEnv("REFRESH_LOCK_TTL", 30*time.Second),
		},
		Sources: SourceConfig{
			SheetURL:    GetEnv("SHEET_SOURCE_URL", defaultSheetURL),
			ContestsURL: GetEnv("CONTESTS_URL", defaultContestsURL),
			JobsBaseURL: GetEnv("JOBS_BASE_URL", "https://internshala.com/jobs/keywords-"),
		},
		Mail: MailConfig{
			Host:     GetEnv("SMTP_HOST", ""),
			Port:     GetEnv("SMTP_PORT", 587),
			Username: GetEnv("SMTP_USERNAME", ""),
			Password: GetEnv("SMTP_PASSWORD", ""),
			From:     GetEnv("SMTP_FROM", ""),
			Schedule: GetEnv("REMINDER_SCHEDULE", "0 9 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be set and at least 16 characters"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Server.Port))
	}
	if c.Server.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	for name, d := range map[string]time.Duration{
		"GITHUB_FRESHNESS":     c.Platforms.GitHubFreshness,
		"LEETCODE_FRESHNESS":   c.Platforms.LeetCodeFreshness,
		"CODEFORCES_FRESHNESS": c.Platforms.CodeforcesFreshness,
		"UPSTREAM_TIMEOUT":     c.Platforms.UpstreamTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// GetEnv returns the environment value for key converted to the type of
// defaultValue. Unset or unparsable values fall back to the default.
func GetEnv[T string | int | bool | time.Duration](key string, defaultValue T) T {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}

	var out any = defaultValue
	switch any(defaultValue).(type) {
	case string:
		out = value
	case int:
		if v, err := strconv.Atoi(value); err == nil {
			out = v
		}
	case bool:
		if v, err := strconv.ParseBool(value); err == nil {
			out = v
		}
	case time.Duration:
		if v, err := time.ParseDuration(value); err == nil {
			out = v
		}
	}
	return out.(T)
}

func parseList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
