// Package server is the composition root: it builds every dependency, mounts
// the routes and runs the HTTP server with graceful shutdown.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go → config.Config, logger, notifier
//	New()   → orm.DB → service.AccountService → handler.{Account,Page,Health}Handler
//
// Each layer only receives what it needs: the service gets repository
// interfaces, the handlers get the service. Nothing is global; tests build a
// Server against ":memory:" and drive it through Handler().
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/mentorship-platform/internal/auth"
	"github.com/sakif/mentorship-platform/internal/config"
	"github.com/sakif/mentorship-platform/internal/handler"
	"github.com/sakif/mentorship-platform/internal/metrics"
	"github.com/sakif/mentorship-platform/internal/middleware"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/notify"
	"github.com/sakif/mentorship-platform/internal/repository/orm"
	"github.com/sakif/mentorship-platform/internal/service"
	"github.com/sakif/mentorship-platform/web"
)

// Server owns the router and the database handle. The database is closed when
// Start returns, or by Close for servers that were never started.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	db       *orm.DB
	sessions *auth.Sessions
	metrics  *metrics.Metrics
	accounts *service.AccountService
}

// New wires the whole application. notifier receives password-change events.
func New(cfg config.Config, logger *slog.Logger, notifier notify.Notifier) (*Server, error) {
	db, err := orm.New(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sessions, err := auth.NewSessions(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.CookieSecure)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring sessions: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		sessions: sessions,
		metrics:  metrics.New(reg),
		accounts: service.NewAccountService(
			db,
			auth.NewPasswordService(),
			notifier,
			cfg.UniversitySuffixes,
			logger,
		),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes mounts middleware and handlers.
//
// ROUTES:
//
//	GET  /                           → home page for the session's role, else /login
//	GET  /login, /register           → forms
//	POST /post-login                 → login form
//	POST /post-register              → registration form
//	POST /post-profile               → profile form
//	POST /logout                     → drop the session
//	GET  /profile, /dashboard        → session pages
//	GET  /mentee, /mentor, /admin    → role home pages
//	GET  /mentee-register, /mentor-register
//	POST /admin/users/{id}/suspend|unsuspend
//	GET  /api/me
//	GET  /healthz, /metrics
//
// MIDDLEWARE ORDER:
// RequestID and RealIP first so the logger sees them; Recoverer inside the
// logger and metrics so a panic is still recorded as a 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.LoadSession(s.sessions))

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("opening static assets: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	pages, err := handler.NewPageHandler(web.Templates, s.accounts, s.sessions, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	accounts := handler.NewAccountHandler(s.accounts, s.sessions, s.metrics, s.logger)
	health := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/", pages.HandleIndex)
	s.router.Get("/login", pages.HandleLogin)
	s.router.Get("/register", pages.HandleRegister)

	s.router.Post("/post-login", accounts.HandleLogin)
	s.router.Post("/post-register", accounts.HandleRegister)
	s.router.Post("/post-profile", accounts.HandleProfile)
	s.router.Post("/logout", accounts.HandleLogout)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession)
		r.Get("/profile", pages.HandleProfile)
		r.Get("/dashboard", pages.HandleDashboard)
		r.Get("/mentee", pages.HandleRoleHome(model.RoleMentee))
		r.Get("/mentor", pages.HandleRoleHome(model.RoleMentor))
		r.Get("/admin", pages.HandleRoleHome(model.RoleAdmin))
		r.Get("/mentee-register", pages.HandleRegistered(model.RoleMentee))
		r.Get("/mentor-register", pages.HandleRegistered(model.RoleMentor))
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireSessionAPI)
		r.Get("/api/me", accounts.HandleMe)
		r.Post("/admin/users/{id}/suspend", accounts.HandleSuspend)
		r.Post("/admin/users/{id}/unsuspend", accounts.HandleUnsuspend)
	})

	s.router.Get("/healthz", health.HandleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on its way out.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT/SIGTERM, then gives in-flight requests 30 seconds
// to finish before closing the database.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("dbDriver", s.config.Database.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
