package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("CM_TEST_INT", "42")
	t.Setenv("CM_TEST_BAD_INT", "forty-two")
	t.Setenv("CM_TEST_DURATION", "90s")
	t.Setenv("CM_TEST_BOOL", "true")
	t.Setenv("CM_TEST_STRING", "hello")

	assert.Equal(t, 42, GetEnv("CM_TEST_INT", 1))
	assert.Equal(t, 7, GetEnv("CM_TEST_BAD_INT", 7), "unparsable falls back to default")
	assert.Equal(t, 90*time.Second, GetEnv("CM_TEST_DURATION", time.Minute))
	assert.True(t, GetEnv("CM_TEST_BOOL", false))
	assert.Equal(t, "hello", GetEnv("CM_TEST_STRING", "x"))
	assert.Equal(t, "fallback", GetEnv("CM_TEST_UNSET_KEY", "fallback"))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-very-long-test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6*time.Hour, cfg.Platforms.GitHubFreshness)
	assert.Equal(t, 24*time.Hour, cfg.Platforms.LeetCodeFreshness)
	assert.Equal(t, 6*time.Hour, cfg.Platforms.CodeforcesFreshness)
	assert.Equal(t, "0 9 * * *", cfg.Mail.Schedule)
	assert.False(t, cfg.Mail.Enabled())
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, parseList(" http://a , ,http://b "))
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}
