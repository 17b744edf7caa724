// Package app wires configuration, row stores, authentication and the HTTP
// surfaces of the admin dashboard into one runnable application.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"admin-dashboard/internal/api"
	"admin-dashboard/internal/auth"
	"admin-dashboard/internal/config"
	"admin-dashboard/internal/dashboard"
	"admin-dashboard/internal/db"
	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/metrics"
	"admin-dashboard/internal/middleware"
	"admin-dashboard/internal/rowstore"
	"admin-dashboard/internal/storage"
	"admin-dashboard/internal/ui"
)

// Stores holds the row stores the app reads through.
type Stores struct {
	// Service reads shared reference data and bypasses row-level security.
	Service domain.RowStore
	// User returns a store scoped to the caller in ctx.
	User func(ctx context.Context) domain.RowStore
	// Auth signs users in against the hosted backend. Nil in SQLite mode.
	Auth *rowstore.AuthClient
}

// App is the fully-wired dashboard application.
type App struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Stores    Stores
	Broker    *auth.Broker
	Sessions  *auth.Sessions
	Validator middleware.JWTValidator
	Board     *dashboard.Board
	Scheduler *dashboard.Scheduler
	Backend   *dashboard.Backend
	Router    http.Handler

	closers  []func() error
	stopOnce sync.Once
	cancel   context.CancelFunc
}

// New builds the application from cfg. Background work starts with Start.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Cfg: cfg, Logger: logger}
	a.Broker = auth.NewBroker(logger)
	a.Sessions = auth.NewSessions(a.Broker, cfg.Auth.SessionTTL)

	if err := a.openStores(ctx); err != nil {
		_ = a.close()
		return nil, err
	}

	validator, err := middleware.NewValidator(ctx, cfg.Auth)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("token validator: %w", err)
	}
	a.Validator = validator

	avatars, err := storage.NewAvatarURLs(cfg, logger)
	if err != nil {
		_ = a.close()
		return nil, err
	}

	a.Board = dashboard.NewBoard(a.Stores.Service, logger)

	a.Scheduler, err = dashboard.NewScheduler(a.Board, cfg.RefreshSchedule, logger)
	if err != nil {
		_ = a.close()
		return nil, err
	}

	a.Backend = &dashboard.Backend{
		Board:      a.Board,
		UserStore:  a.Stores.User,
		Principals: a.principalSource(),
		Broker:     a.Broker,
		Avatars:    avatars,
		Logger:     logger,
	}
	a.Router = a.routes(ctx)
	return a, nil
}

func (a *App) openStores(ctx context.Context) error {
	cfg := a.Cfg
	switch cfg.RowStore {
	case config.RowStoreREST:
		opts := []rowstore.Option{rowstore.WithLogger(a.Logger.With("component", "rowstore"))}
		anon, err := rowstore.NewRESTStore(cfg.Backend.URL, cfg.Backend.AnonKey, opts...)
		if err != nil {
			return fmt.Errorf("row store: %w", err)
		}
		authClient, err := rowstore.NewAuthClient(cfg.Backend.URL, cfg.Backend.AnonKey, opts...)
		if err != nil {
			return fmt.Errorf("auth client: %w", err)
		}
		service := domain.RowStore(anon)
		if cfg.Backend.ServiceRoleKey != "" {
			svc, err := rowstore.NewServiceStore(cfg.Backend.URL, cfg.Backend.ServiceRoleKey, opts...)
			if err != nil {
				return fmt.Errorf("service row store: %w", err)
			}
			service = svc
		}
		lookup := middleware.LiveSession(a.Sessions)
		a.Stores = Stores{
			Service: service,
			Auth:    authClient,
			User: func(ctx context.Context) domain.RowStore {
				if token := lookup.Token(ctx); token != "" {
					return anon.WithAccessToken(token)
				}
				return anon
			},
		}
		a.Logger.Info("row store ready", "engine", cfg.RowStore, "backend", cfg.Backend.URL)
		return nil

	case config.RowStoreSQLite:
		writeDB, readDB, err := db.OpenPair(cfg.MetaDBPath, 0)
		if err != nil {
			return fmt.Errorf("open row store: %w", err)
		}
		a.closers = append(a.closers, readDB.Close, writeDB.Close)
		if err := prepareSQLite(ctx, writeDB, cfg.SeedDemoData); err != nil {
			return err
		}
		store := rowstore.NewSQLiteStore(readDB, a.Logger.With("component", "rowstore"))
		a.Stores = Stores{
			Service: store,
			User:    func(context.Context) domain.RowStore { return store },
		}
		a.Logger.Info("row store ready", "engine", cfg.RowStore, "path", cfg.MetaDBPath, "seeded", cfg.SeedDemoData)
		return nil
	}
	return fmt.Errorf("unknown row store %q", cfg.RowStore)
}

func prepareSQLite(ctx context.Context, writeDB *sql.DB, seed bool) error {
	if err := db.RunMigrations(writeDB); err != nil {
		return fmt.Errorf("migrate row store: %w", err)
	}
	if !seed {
		return nil
	}
	if err := db.Seed(ctx, writeDB); err != nil {
		return fmt.Errorf("seed row store: %w", err)
	}
	return nil
}

// principalSource picks how the caller's principal is derived. Sessions
// holding an access token are resolved through the validator or the backend
// auth API; demo sessions without one fall back to the session's subject.
// Sessions are re-read on every resolution so sign-out and token refresh are
// observed.
func (a *App) principalSource() domain.PrincipalSource {
	lookup := middleware.LiveSession(a.Sessions)
	fromSession := middleware.SessionPrincipalSource(lookup)

	var fromToken domain.PrincipalSource
	switch {
	case a.Validator != nil:
		fromToken = middleware.TokenPrincipalSource(a.Validator, lookup.Token)
	case a.Stores.Auth != nil:
		fromToken = a.Stores.Auth.PrincipalSource(lookup.Token)
	default:
		return fromSession
	}
	return domain.PrincipalSourceFunc(func(ctx context.Context) (*domain.Principal, error) {
		if lookup.Token(ctx) == "" {
			return fromSession.CurrentPrincipal(ctx)
		}
		return fromToken.CurrentPrincipal(ctx)
	})
}

func (a *App) routes(ctx context.Context) http.Handler {
	cfg := a.Cfg
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(a.Logger.With("component", "http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.RateLimiter(ctx, middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", a.health)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	authn := middleware.Authenticate(a.Sessions, a.Validator)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: !containsWildcard(cfg.CORSAllowedOrigins),
			MaxAge:           300,
		}))
		r.Use(authn)
		api.NewHandler(a.Backend, a.Logger).MountRoutes(r)
	})

	uiHandler := ui.NewHandler(
		a.Backend,
		a.Sessions,
		a.Stores.Auth,
		a.Validator,
		cfg.RowStore == config.RowStoreSQLite && !cfg.IsProduction(),
		cfg.IsProduction(),
		a.Logger,
	)
	r.Route("/ui", func(r chi.Router) {
		r.Use(authn)
		ui.MountRoutes(r, uiHandler)
	})
	return r
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

type healthResponse struct {
	Status   string `json:"status"`
	RowStore string `json:"row_store"`
	Cities   bool   `json:"cities_loaded"`
	States   bool   `json:"states_loaded"`
	Sessions int    `json:"sessions"`
}

func (a *App) health(w http.ResponseWriter, _ *http.Request) {
	snap := a.Board.Snapshot()
	resp := healthResponse{
		Status:   "ok",
		RowStore: a.Cfg.RowStore,
		Cities:   !snap.Cities.Loading && snap.Cities.Error == nil,
		States:   !snap.States.Loading && snap.States.Error == nil,
		Sessions: a.Sessions.Len(),
	}
	status := http.StatusOK
	if snap.Cities.Error != nil || snap.States.Error != nil {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Start begins loading reference data and runs the background jobs until
// Shutdown is called.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.Board.Start(ctx)
	a.Scheduler.Start()
	go a.Sessions.ReapIdle(ctx)
	a.Logger.Info("dashboard started", "refresh_schedule", a.Cfg.RefreshSchedule, "entries", a.Scheduler.Entries())
}

// Shutdown stops background jobs, signs out every session and closes the
// row store. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.stopOnce.Do(func() {
		done := make(chan struct{})
		go func() {
			defer close(done)
			a.Scheduler.Stop()
			if a.cancel != nil {
				a.cancel()
			}
			a.Board.Stop()
			a.Sessions.CloseAll()
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("shutdown: %w", ctx.Err())
		}
		if cerr := a.close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	})
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// ShutdownTimeout bounds graceful shutdown of the HTTP server and app.
const ShutdownTimeout = 10 * time.Second
