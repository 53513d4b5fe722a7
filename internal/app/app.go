// Package app builds the process-lifetime runtime: every long-lived resource
// the server needs is created once here and released in Close.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/sakif/codeminder/internal/ai"
	"github.com/sakif/codeminder/internal/auth"
	"github.com/sakif/codeminder/internal/config"
	"github.com/sakif/codeminder/internal/jobs"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/platform"
	"github.com/sakif/codeminder/internal/platform/codeforces"
	"github.com/sakif/codeminder/internal/platform/github"
	"github.com/sakif/codeminder/internal/platform/leetcode"
	"github.com/sakif/codeminder/internal/refresh"
	"github.com/sakif/codeminder/internal/reminder"
	sqliteRepo "github.com/sakif/codeminder/internal/repository/sqlite"
	"github.com/sakif/codeminder/internal/service"
	"github.com/sakif/codeminder/internal/sheetsource"
)

// Services groups the business services handlers are built from.
type Services struct {
	Auth       *service.AuthService
	Users      *service.UserService
	Profiles   *service.ProfileService
	Sheets     *service.SheetService
	Notes      *service.NoteService
	Assistant  *service.AssistantService
	Resumes    *service.ResumeService
	Interviews *service.InterviewService
	Roadmaps   *service.RoadmapService
}

// Runtime owns the database, the optional redis client, the model client,
// the platform adapters and the reminder scheduler.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *sqliteRepo.DB
	Redis    *redis.Client // nil when REDIS_ADDR is empty
	Model    ai.Model
	Adapters []platform.Adapter
	Tokens   *auth.TokenService
	Jobs     *jobs.Scraper
	Services Services

	cron *cron.Cron
}

// New opens every resource in dependency order. On failure the resources
// opened so far are released.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Logger: logger}
	if err := rt.open(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) open(ctx context.Context) error {
	cfg, logger := rt.Config, rt.Logger
	var err error

	if dir := filepath.Dir(cfg.Server.DBPath); cfg.Server.DBPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("app: creating database directory %s: %w", dir, err)
		}
	}
	rt.DB, err = sqliteRepo.New(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("app: opening database: %w", err)
	}

	if cfg.Redis.Addr != "" {
		rt.Redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rt.Redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("app: connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("refresh lock enabled", slog.String("redis", cfg.Redis.Addr))
	}

	rt.Model, err = ai.NewGemini(ctx, cfg.AI.APIKey, cfg.AI.Model)
	if err != nil {
		return err
	}
	if cfg.AI.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set; AI features will fail")
	}

	rt.Tokens, err = auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	hc := &http.Client{Timeout: cfg.Platforms.UpstreamTimeout}
	rt.Adapters = []platform.Adapter{
		platform.WithBreaker(github.New(github.Config{
			BaseURL:    cfg.Platforms.GitHubAPIURL,
			Token:      cfg.Platforms.GitHubToken,
			HTTPClient: hc,
		}), platform.BreakerSettings{}, logger),
		platform.WithBreaker(leetcode.New(cfg.Platforms.LeetCodeGraphQLURL, hc), platform.BreakerSettings{}, logger),
		platform.WithBreaker(codeforces.New(cfg.Platforms.CodeforcesAPIURL, hc), platform.BreakerSettings{}, logger),
	}
	rt.Jobs = jobs.New(cfg.Sources.JobsBaseURL, hc)

	rt.Services = newServices(rt, hc)

	if cfg.Mail.Enabled() {
		job := reminder.NewJob(
			reminder.NewContestClient(cfg.Sources.ContestsURL, hc),
			rt.DB,
			reminder.NewSMTPMailer(reminder.SMTPConfig{
				Host:     cfg.Mail.Host,
				Port:     cfg.Mail.Port,
				Username: cfg.Mail.Username,
				Password: cfg.Mail.Password,
				From:     cfg.Mail.From,
			}),
			logger,
		)
		rt.cron, err = job.Schedule(cfg.Mail.Schedule)
		if err != nil {
			return err
		}
		logger.Info("contest reminder scheduled", slog.String("schedule", cfg.Mail.Schedule))
	} else {
		logger.Info("SMTP not configured; contest reminder disabled")
	}

	return nil
}

func newServices(rt *Runtime, hc *http.Client) Services {
	cfg, db, logger := rt.Config, rt.DB, rt.Logger

	coordinator := refresh.New(refresh.Options{
		Redis:   rt.Redis,
		LockTTL: cfg.Redis.LockTTL,
		Timeout: cfg.Platforms.UpstreamTimeout,
		Logger:  logger,
	})
	freshness := map[model.Platform]time.Duration{
		model.PlatformGitHub:     cfg.Platforms.GitHubFreshness,
		model.PlatformLeetCode:   cfg.Platforms.LeetCodeFreshness,
		model.PlatformCodeforces: cfg.Platforms.CodeforcesFreshness,
	}
	profiles := service.NewProfileService(db, db, rt.Adapters, freshness, coordinator, logger)

	return Services{
		Auth:       service.NewAuthService(db, rt.Tokens, auth.NewPasswordService(), logger),
		Users:      service.NewUserService(db, logger),
		Profiles:   profiles,
		Sheets:     service.NewSheetService(db, db, db, db, db, sheetsource.New(cfg.Sources.SheetURL, hc), logger),
		Notes:      service.NewNoteService(db, db, logger),
		Assistant:  service.NewAssistantService(rt.Model, db, profiles, db, logger),
		Resumes:    service.NewResumeService(rt.Model, db, logger),
		Interviews: service.NewInterviewService(rt.Model, db, logger),
		Roadmaps:   service.NewRoadmapService(rt.Model, logger),
	}
}

// Close stops the scheduler, waits for background resume extractions and
// releases redis and the database. It is safe on a partly built Runtime.
func (rt *Runtime) Close() error {
	if rt.cron != nil {
		<-rt.cron.Stop().Done()
	}
	if rt.Services.Resumes != nil {
		rt.Services.Resumes.Wait()
	}

	var errs []error
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("app: closing redis: %w", err))
		}
	}
	if rt.DB != nil {
		if err := rt.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("app: closing database: %w", err))
		}
	}
	return errors.Join(errs...)
}
