// Package server sets up the HTTP server, router, and all route definitions.
//
// The runtime (internal/app) owns every long-lived resource; this package
// only turns its services into handlers and routes:
//
//	app.Runtime.Services → handler.*Handler → chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/codeminder/internal/app"
	"github.com/sakif/codeminder/internal/auth"
	"github.com/sakif/codeminder/internal/handler"
	"github.com/sakif/codeminder/internal/middleware"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// context passed to Start is cancelled.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and its router.
type Server struct {
	router *chi.Mux
	rt     *app.Runtime
	logger *slog.Logger
}

// New wires handlers from the runtime's services.
func New(rt *app.Runtime, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		rt:     rt,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// Middleware order:
//  1. RequestID, RealIP: request metadata for everything below
//  2. Recoverer: panics become 500
//  3. Logger, Metrics: one log line and one observation per request
//  4. CORS, rate limit per client IP
//
// Everything under /api except signup and login needs a bearer token.
func (s *Server) setupRoutes() {
	cfg := s.rt.Config.Server
	svc := s.rt.Services

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	health := handler.NewHealthHandler(s.rt.DB, s.logger)
	s.router.Get("/health", health.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	users := handler.NewUserHandler(svc.Auth, svc.Users, s.logger)
	profiles := handler.NewProfileHandler(svc.Profiles, s.logger)
	sheets := handler.NewSheetHandler(svc.Sheets, s.logger)
	notes := handler.NewNoteHandler(svc.Notes, s.logger)
	aiHandler := handler.NewAIHandler(svc.Assistant, svc.Resumes, svc.Roadmaps, s.logger)
	interviews := handler.NewInterviewHandler(svc.Interviews, s.logger)
	jobs := handler.NewJobsHandler(s.rt.Jobs, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
		}

		r.Post("/user/signup", users.HandleSignup)
		r.Post("/user/login", users.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.rt.Tokens))

			r.Get("/user", users.HandleMe)
			r.Put("/user/edit", users.HandleEdit)

			r.Get("/profile/{platform}", profiles.HandleGet)

			r.Route("/sheets", func(r chi.Router) {
				r.Post("/create", sheets.HandleCreate)
				r.Get("/", sheets.HandleList)
				r.Post("/follow", sheets.HandleFollow)
				r.Post("/details", sheets.HandleDetails)
				r.Get("/followed/list", sheets.HandleFollowed)
				r.Get("/solved", sheets.HandleSolved)
				r.Post("/question/mark-solved", sheets.HandleMarkSolved)
				r.Post("/fetch-and-add-questions", sheets.HandleImport)
			})

			r.Route("/notes", func(r chi.Router) {
				r.Post("/create", notes.HandleCreate)
				r.Put("/update", notes.HandleUpdate)
				r.Get("/general", notes.HandleListGeneral)
				r.Get("/question", notes.HandleListQuestion)
				r.Get("/{noteId}", notes.HandleGet)
				r.Delete("/{noteId}", notes.HandleDelete)
			})

			r.Post("/aiagent", aiHandler.HandleChat)
			r.Post("/resume/analyze", aiHandler.HandleAnalyzeResume)
			r.Get("/resume", aiHandler.HandleGetResume)
			r.Post("/roadmap", aiHandler.HandleRoadmap)

			r.Route("/aiinterview", func(r chi.Router) {
				r.Post("/create", interviews.HandleCreate)
				r.Get("/get/{id}", interviews.HandleGet)
				r.Get("/getUserInterviews", interviews.HandleList)
				r.Post("/{id}/submitAns", interviews.HandleSubmitAnswer)
				r.Post("/expression", interviews.HandleExpression)
				r.Post("/reset/{id}", interviews.HandleReset)
				r.Delete("/interview/{id}", interviews.HandleDelete)
			})

			r.Get("/jobs", jobs.HandleSearch)
		})
	})
}

// Start listens until ctx is cancelled, then drains in-flight requests for
// up to shutdownTimeout. The runtime is not closed here; main owns it.
func (s *Server) Start(ctx context.Context) error {
	port := s.rt.Config.Server.Port
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// AI calls and cold refreshes can take a while.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", port)),
			slog.String("database", s.rt.Config.Server.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
