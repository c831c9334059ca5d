// Package server is the composition root: it builds every dependency from
// config, wires handlers to routes, and owns the process lifecycle (HTTP
// listener, background scheduler, database).
//
// OPTIONAL INTEGRATIONS:
// Each external system is chosen from config at startup.
//
//	MINIO_ENDPOINT set    → resumes in MinIO, otherwise a local directory
//	REDIS_URL set         → job cache in Redis, otherwise the job_cache table
//	GEMINI_PROJECT_ID set → AI resume parsing and job suggestions, otherwise 503
//	GITHUB_CLIENT_ID set  → GitHub linking, otherwise 503
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/swipejobs/internal/auth"
	"github.com/sakif/swipejobs/internal/cache"
	"github.com/sakif/swipejobs/internal/config"
	"github.com/sakif/swipejobs/internal/github"
	"github.com/sakif/swipejobs/internal/handler"
	"github.com/sakif/swipejobs/internal/jobs"
	"github.com/sakif/swipejobs/internal/llm"
	"github.com/sakif/swipejobs/internal/middleware"
	sqliteRepo "github.com/sakif/swipejobs/internal/repository/sqlite"
	"github.com/sakif/swipejobs/internal/resume"
	"github.com/sakif/swipejobs/internal/scheduler"
	"github.com/sakif/swipejobs/internal/service"
	"github.com/sakif/swipejobs/internal/storage"
)

// Scheduled task names.
const (
	TaskGitHubResync  = "github-resync"
	TaskTokenSweep    = "github-token-sweep"
	TaskSessionSweep  = "session-sweep"
	TaskCachePurge    = "job-cache-purge"
	TaskLimiterPrune  = "login-limiter-prune"
	shutdownTimeout   = 30 * time.Second
	limiterIdleWindow = 30 * time.Minute
)

// Server holds the router and everything it must release on shutdown.
type Server struct {
	router    *chi.Mux
	config    *config.Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	scheduler *scheduler.Scheduler
	closers   []func() error
}

// services groups the business layer so routes and tasks share one set.
type services struct {
	sessions       *service.SessionService
	accounts       *service.AccountService
	profiles       *service.ProfileService
	resumes        *service.ResumeService
	apps           *service.ApplicationService
	jobs           *service.JobService
	github         *service.GitHubService
	limiter        *middleware.RateLimiter
	accountLimiter *middleware.RateLimiter
}

// New builds the dependency graph. On error everything opened so far is
// closed again.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{router: chi.NewRouter(), config: cfg, logger: logger}

	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s.db = db
	s.closers = append(s.closers, db.Close)

	svc, err := s.buildServices(ctx)
	if err != nil {
		s.close()
		return nil, err
	}

	s.setupRoutes(svc)
	s.scheduler = scheduler.New(logger, s.tasks(svc)...)
	return s, nil
}

func (s *Server) buildServices(ctx context.Context) (*services, error) {
	cfg, logger := s.config, s.logger

	codes, err := auth.NewCodeService(cfg.Auth.CodeSecret, cfg.Auth.CodeHashCost)
	if err != nil {
		return nil, err
	}
	states, err := auth.NewStateService(cfg.Auth.StateSecret)
	if err != nil {
		return nil, err
	}
	cipher, err := auth.NewTokenCipher(cfg.GitHub.TokenEncryptionKey)
	if err != nil {
		return nil, err
	}

	store, err := s.resumeStore(ctx)
	if err != nil {
		return nil, err
	}
	jobCache, err := s.jobCache(ctx)
	if err != nil {
		return nil, err
	}

	// Interface values stay nil (not typed nil) when a feature is off; the
	// services check for that.
	var (
		model     llm.Model
		extractor service.ResumeExtractor
	)
	if cfg.Gemini.Enabled() {
		gemini, err := llm.NewVertexGemini(ctx, llm.VertexConfig{
			ProjectID:       cfg.Gemini.ProjectID,
			Location:        cfg.Gemini.Location,
			Model:           cfg.Gemini.Model,
			CredentialsFile: cfg.Gemini.CredentialsFile,
			APIKey:          cfg.Gemini.APIKey,
			Timeout:         cfg.Gemini.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to Gemini: %w", err)
		}
		s.closers = append(s.closers, gemini.Close)
		model = gemini
		extractor = resume.NewExtractor(gemini)
		logger.Info("gemini enabled", slog.String("model", cfg.Gemini.Model))
	} else {
		logger.Warn("GEMINI_PROJECT_ID not set: resume parsing and AI job suggestions are disabled")
	}

	var ghClient service.GitHubClient
	if cfg.GitHub.Enabled() {
		ghClient = github.NewClient(github.Config{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			RedirectURL:  cfg.GitHub.RedirectURI,
			APIBaseURL:   cfg.GitHub.APIBaseURL,
			Logger:       logger,
		})
	} else {
		logger.Warn("GITHUB_CLIENT_ID not set: GitHub linking is disabled")
	}

	files := storage.NewResumes(store, cfg.Resume.MaxBytes)
	sessions := service.NewSessionService(s.db, cfg.Auth.SessionTTL, logger)
	resumes := service.NewResumeService(s.db, s.db, files, extractor, logger)

	return &services{
		sessions: sessions,
		accounts: service.NewAccountService(s.db, sessions, codes, resumes, cfg.Auth.MaxCodeGeneration, logger),
		profiles: service.NewProfileService(s.db, s.db, logger),
		resumes:  resumes,
		apps:     service.NewApplicationService(s.db, s.db, logger),
		jobs: service.NewJobService(
			jobs.NewRemoteOK(cfg.Jobs.RemoteOKURL, cfg.Jobs.Timeout, cfg.Jobs.Limit, logger),
			jobs.NewGenerator(model, logger),
			jobCache, cfg.Jobs.CacheTTL, logger,
		),
		github: service.NewGitHubService(s.db, ghClient, states, cipher, service.GitHubOptions{
			SyncUserDelay:  cfg.GitHub.SyncUserDelay,
			SweepUserDelay: cfg.GitHub.SweepUserDelay,
		}, logger),
		limiter:        middleware.NewRateLimiter(cfg.Auth.LoginRatePerMin, cfg.Auth.LoginBurst, limiterIdleWindow, logger),
		accountLimiter: middleware.NewRateLimiter(cfg.Auth.AccountRatePerMin, cfg.Auth.AccountBurst, limiterIdleWindow, logger),
	}, nil
}

func (s *Server) resumeStore(ctx context.Context) (storage.Store, error) {
	m := s.config.MinIO
	if m.Endpoint == "" {
		s.logger.Info("storing resumes on disk", slog.String("dir", s.config.Resume.Dir))
		return storage.NewLocalStore(s.config.Resume.Dir)
	}
	store, err := storage.NewMinIOStore(ctx, storage.MinIOConfig{
		Endpoint:  m.Endpoint,
		AccessKey: m.AccessKey,
		SecretKey: m.SecretKey,
		Bucket:    m.Bucket,
		UseSSL:    m.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to MinIO: %w", err)
	}
	s.logger.Info("storing resumes in MinIO", slog.String("endpoint", m.Endpoint), slog.String("bucket", m.Bucket))
	return store, nil
}

func (s *Server) jobCache(ctx context.Context) (cache.Cache, error) {
	if s.config.Redis.URL == "" {
		return cache.NewDBCache(s.db), nil
	}
	rc, err := cache.NewRedis(ctx, s.config.Redis.URL)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, rc.Close)
	s.logger.Info("caching job listings in Redis")
	return rc, nil
}

// setupRoutes configures middleware and routes.
//
// ROUTE STRUCTURE:
//
//	GET    /health
//	POST   /users/register                  public
//	POST   /users/login                     public, rate limited
//	GET    /jobs/{remoteok,gemini,all}      public
//	GET    /github/callback                 public (signed state names the user)
//	POST   /users/logout                    session
//	GET    /users/me                        session
//	GET    /users/profile/{id}              session, owner
//	PUT    /users/profile/{id}              session, owner
//	DELETE /users/profile/{id}              session, owner
//	POST   /users/process-resume/{id}       session, owner
//	GET    /users/resume/{id}               session, owner
//	POST   /users/resume/{id}               session, owner
//	POST   /users/apply                     session
//	GET    /users/applications/{id}         session, owner
//	*      /users/{id}/{education,certifications,work-experience,internships,projects}[/{itemID}]
//	GET    /github/{connect,status,repos}   session
//	POST   /github/sync                     session
//	DELETE /github/link                     session
//
// MIDDLEWARE ORDER:
// RequestID runs first so the logger sees the request id. RealIP is mounted
// only with HTTP_TRUST_PROXY: it believes forwarding headers, and without a
// proxy that overwrites them a client could pick its own address and dodge
// the login limiter. Recoverer turns a panic into a 500 instead of killing
// the process.
func (s *Server) setupRoutes(svc *services) {
	s.router.Use(chimiddleware.RequestID)
	if s.config.HTTP.TrustProxy {
		s.router.Use(chimiddleware.RealIP)
	}
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(s.config.HTTP.AllowedOrigins))

	maxUpload := s.config.Resume.MaxBytes
	users := handler.NewUserHandler(svc.accounts, svc.accountLimiter, maxUpload, s.config.HTTP.SecureCookies, s.logger)
	profiles := handler.NewProfileHandler(svc.profiles, svc.resumes, maxUpload, s.logger)
	apps := handler.NewApplicationHandler(svc.apps, s.logger)
	jobsH := handler.NewJobHandler(svc.jobs, s.logger)
	gh := handler.NewGitHubHandler(svc.github, s.logger)
	health := handler.NewHealthHandler(s.db, s.logger)

	requireSession := auth.RequireSession(svc.sessions)

	s.router.Get("/health", health.HandleHealth)

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/register", users.HandleRegister)
		r.With(svc.limiter.Middleware).Post("/login", users.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Post("/logout", users.HandleLogout)
			r.Get("/me", users.HandleMe)
			r.Get("/profile/{id}", profiles.HandleGet)
			r.Put("/profile/{id}", profiles.HandleUpdate)
			r.Delete("/profile/{id}", users.HandleDelete)
			r.Post("/process-resume/{id}", profiles.HandleProcessResume)
			r.Get("/resume/{id}", profiles.HandleDownloadResume)
			r.Post("/resume/{id}", profiles.HandleUploadResume)
			r.Post("/apply", apps.HandleApply)
			r.Get("/applications/{id}", apps.HandleList)
			r.Route("/{id}", profiles.MountChildren)
		})
	})

	s.router.Route("/jobs", func(r chi.Router) {
		r.Get("/remoteok", jobsH.HandleRemoteOK)
		r.Get("/gemini", jobsH.HandleGemini)
		r.Get("/all", jobsH.HandleAll)
	})

	s.router.Route("/github", func(r chi.Router) {
		r.Get("/callback", gh.HandleCallback)
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/connect", gh.HandleConnect)
			r.Get("/status", gh.HandleStatus)
			r.Get("/repos", gh.HandleRepos)
			r.Post("/sync", gh.HandleSync)
			r.Delete("/link", gh.HandleUnlink)
		})
	})
}

func (s *Server) tasks(svc *services) []scheduler.Task {
	sc := s.config.Scheduler
	return []scheduler.Task{
		{Name: TaskGitHubResync, Interval: sc.GitHubSyncInterval, Run: svc.github.SyncAll},
		{Name: TaskTokenSweep, Interval: sc.TokenSweepInterval, Run: svc.github.SweepTokens},
		{Name: TaskSessionSweep, Interval: sc.SessionSweepInterval, RunOnStart: true, Run: svc.sessions.Sweep},
		{Name: TaskCachePurge, Interval: sc.CachePurgeInterval, Run: svc.jobs.PurgeCache},
		{Name: TaskLimiterPrune, Interval: sc.LimiterPruneInterval, Run: func(context.Context) error {
			if n := svc.limiter.Prune() + svc.accountLimiter.Prune(); n > 0 {
				s.logger.Debug("login limiter pruned", slog.Int("clients", n))
			}
			return nil
		}},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Scheduler exposes the background task runner.
func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

// Start serves HTTP and runs the scheduler until SIGINT/SIGTERM.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting connections and give in-flight requests 30 seconds
//  2. Stop the scheduler (cancels running tasks and waits for them)
//  3. Close the database and external clients
func (s *Server) Start() error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.HTTP.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // resume processing waits on the model
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.HTTP.Port),
			slog.String("database", s.config.Database.Path),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	s.scheduler.Start(context.Background())
	defer s.scheduler.Stop()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

// Close releases the database and external clients without starting the
// listener. Start calls it on the way out.
func (s *Server) Close() {
	s.close()
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("error during shutdown", slog.String("error", err.Error()))
		}
	}
	s.closers = nil
}
