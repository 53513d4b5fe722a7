package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codeminder/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, DBPath: ":memory:", CORSOrigins: []string{"*"}},
		Auth:   config.AuthConfig{JWTSecret: "test-secret-at-least-32-characters-long", TokenTTL: time.Hour},
		Platforms: config.PlatformConfig{
			GitHubFreshness:     time.Hour,
			LeetCodeFreshness:   time.Hour,
			CodeforcesFreshness: time.Hour,
			UpstreamTimeout:     5 * time.Second,
		},
		Mail: config.MailConfig{Schedule: "0 9 * * *"},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_Minimal(t *testing.T) {
	rt, err := New(context.Background(), testConfig(), quietLogger())
	require.NoError(t, err)

	assert.Nil(t, rt.Redis)
	assert.Nil(t, rt.cron)
	assert.Len(t, rt.Adapters, 3)
	assert.NotNil(t, rt.Services.Profiles)
	assert.NotNil(t, rt.Services.Interviews)
	require.NoError(t, rt.DB.Ping(context.Background()))

	assert.NoError(t, rt.Close())
}

func TestNew_CreatesDatabaseDirectory(t *testing.T) {
	cfg := testConfig()
	cfg.Server.DBPath = filepath.Join(t.TempDir(), "nested", "codeminder.db")

	rt, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	assert.FileExists(t, cfg.Server.DBPath)
	assert.NoError(t, rt.Close())
}

func TestNew_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.Addr = mr.Addr()

	rt, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, rt.Redis)
	assert.NoError(t, rt.Close())
}

func TestNew_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.Redis.Addr = addr

	_, err := New(context.Background(), cfg, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestNew_ReminderScheduled(t *testing.T) {
	cfg := testConfig()
	cfg.Mail.Host = "smtp.example.com"
	cfg.Mail.From = "noreply@example.com"

	rt, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, rt.cron)
	assert.Len(t, rt.cron.Entries(), 1)
	assert.NoError(t, rt.Close())
}

func TestNew_BadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Mail.Host = "smtp.example.com"
	cfg.Mail.From = "noreply@example.com"
	cfg.Mail.Schedule = "not a schedule"

	_, err := New(context.Background(), cfg, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}

func TestClose_PartialRuntime(t *testing.T) {
	rt := &Runtime{}
	assert.NoError(t, rt.Close())
}
