package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vadim/threadstat/internal/config"
	httpcontroller "github.com/vadim/threadstat/internal/controller/http"
	"github.com/vadim/threadstat/internal/database"
	"github.com/vadim/threadstat/internal/domain/analysis/policy"
	sessiondao "github.com/vadim/threadstat/internal/domain/session/dao"
	"github.com/vadim/threadstat/internal/domain/session/scheduler"
	sessionservice "github.com/vadim/threadstat/internal/domain/session/service"
	"github.com/vadim/threadstat/internal/httpx/response"
	"github.com/vadim/threadstat/internal/httpx/upstream/threads"
)

const (
	sessionBackendPostgres = "postgres"
	stateBackendRedis      = "redis"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	// Infrastructure, nil when the matching backend is not configured
	pg    *pgxpool.Pool
	redis *redis.Client

	threads        *threads.Client
	analysisPolicy *policy.Policy
	sessions       *sessionservice.Service

	// Sweeper for expired sessions
	sweeper *scheduler.Scheduler
}

// NewLogger builds the JSON logger used by the server and the CLI
func NewLogger(cfg config.Log) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	logger := NewLogger(cfg.Log)
	if cfg.Session.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("session signing key is the placeholder; sign-in stays disabled until THREADS_CLIENT_ID and SESSION_JWT_SECRET are set")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(httpcontroller.SecurityHeaders)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	if err := app.initInfrastructure(ctx); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	if err := app.initDomains(ctx); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	if err := app.registerRoutes(); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("registering routes: %w", err)
	}

	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// initInfrastructure connects the optional Postgres and Redis backends
func (a *App) initInfrastructure(ctx context.Context) error {
	if a.cfg.Session.Backend == sessionBackendPostgres {
		pool, err := database.NewPostgresPool(ctx, database.PoolConfig{
			DSN:          a.cfg.Database.PostgresDSN,
			MaxConns:     a.cfg.Database.MaxConns,
			MinConns:     a.cfg.Database.MinConns,
			ConnLifetime: a.cfg.Database.ConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.pg = pool
	}

	if a.cfg.Session.StateBackend == stateBackendRedis {
		client, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		a.redis = client
	}

	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains(ctx context.Context) error {
	a.threads = NewThreadsClient(a.cfg.Threads)

	analysisPolicy, err := NewAnalysisPolicy(a.threads, a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.analysisPolicy = analysisPolicy

	var sessions interface {
		sessionservice.SessionStore
		scheduler.ExpiredSessionDeleter
	}
	if a.pg != nil {
		store := sessiondao.NewSessionPostgres(a.pg)
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("preparing session schema: %w", err)
		}
		sessions = store
	} else {
		sessions = sessiondao.NewSessionMemory()
	}

	var states sessionservice.StateStore
	if a.redis != nil {
		states = sessiondao.NewStateRedis(a.redis, a.cfg.Redis.Prefix)
	} else {
		states = sessiondao.NewStateMemory()
	}

	a.sessions = sessionservice.New(a.threads, sessions, states, sessionservice.Config{
		ClientID:     a.cfg.Threads.ClientID,
		ClientSecret: a.cfg.Threads.ClientSecret,
		RedirectURI:  a.cfg.Threads.RedirectURI,
		AuthorizeURL: a.cfg.Threads.AuthorizeURL,
		Scopes:       splitScopes(a.cfg.Threads.Scopes),
		TTL:          a.cfg.Session.TTL,
		StateTTL:     a.cfg.Session.StateTTL,
		JWTSecret:    a.cfg.Session.JWTSecret,
		JWTIssuer:    a.cfg.Session.JWTIssuer,
		JWTAudience:  a.cfg.Session.JWTAudience,
	}, a.logger)

	a.sweeper = scheduler.New(sessions, scheduler.Config{Interval: a.cfg.Session.SweepInterval}, a.logger)

	return nil
}

// sessionTokens resolves the session cookie of a request into a token source
func (a *App) sessionTokens(r *http.Request) policy.TokenSource {
	c, err := r.Cookie(a.cfg.Session.CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	return a.sessions.TokenSource(c.Value)
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() error {
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	swaggerHandler, err := httpcontroller.NewSwaggerHandler("Thread Tracker API", OpenAPISpec)
	if err != nil {
		return err
	}
	swaggerHandler.RegisterRoutes(a.router)

	httpcontroller.NewAuthHandler(a.sessions, httpcontroller.CookieConfig{
		Name:   a.cfg.Session.CookieName,
		Secure: a.cfg.Session.CookieSecure,
	}, a.logger).RegisterRoutes(a.router)

	httpcontroller.NewDashboardHandler(a.analysisPolicy, a.sessions, a.sessionTokens, a.cfg.Session.CookieName, a.logger).
		RegisterRoutes(a.router)

	httpcontroller.NewAnalysisHandler(a.analysisPolicy, a.sessionTokens, a.logger).RegisterRoutes(a.router)

	return nil
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// readyHandler reports whether the configured backends answer
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if a.pg != nil {
		if err := a.pg.Ping(ctx); err != nil {
			a.logger.Warn("postgres not ready", "error", err)
			response.ServiceUnavailable(w, "postgres unavailable")
			return
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.logger.Warn("redis not ready", "error", err)
			response.ServiceUnavailable(w, "redis unavailable")
			return
		}
	}

	response.OK(w, map[string]string{"status": "ready"})
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	a.sweeper.Start(ctx)

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.sweeper.Stop()
		a.closeInfrastructure()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	a.closeInfrastructure()

	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) closeInfrastructure() {
	if a.pg != nil {
		a.pg.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing redis", "error", err)
		}
	}
}

func splitScopes(raw string) []string {
	var scopes []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}
