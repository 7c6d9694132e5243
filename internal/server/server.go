// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: every dependency is built and wired
// here, in one place.
//
//	config → store (sqlite | postgres | mongo)
//	       → TokenService, PasswordService, Validator
//	       → AuthService, UserService
//	       → AuthHandler, UserHandler
//	       → chi router with middleware
//
// ROUTES:
//
//	POST   /api/auth/register  public
//	POST   /api/auth/login     public
//	GET    /api/auth/me        RequireAuth
//	GET    /api/users/{id}     RequireAuth
//	PATCH  /api/users/me       RequireAuth
//	DELETE /api/users/me       RequireAuth
//	GET    /health             public
//	GET    /metrics            public
//
// MIDDLEWARE ORDER (outermost first):
//  1. RequestID: assigns the id used in logs and 500 responses
//  2. RealIP: client IP from proxy headers
//  3. Logger: one line per request
//  4. Recoverer: panics become a 500 envelope, still logged and counted
//  5. Metrics: request counter and latency histogram
//  6. CORS
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/dating-profiles/internal/auth"
	"github.com/sakif/dating-profiles/internal/config"
	"github.com/sakif/dating-profiles/internal/handler"
	"github.com/sakif/dating-profiles/internal/middleware"
	"github.com/sakif/dating-profiles/internal/repository"
	mongoRepo "github.com/sakif/dating-profiles/internal/repository/mongo"
	postgresRepo "github.com/sakif/dating-profiles/internal/repository/postgres"
	sqliteRepo "github.com/sakif/dating-profiles/internal/repository/sqlite"
	"github.com/sakif/dating-profiles/internal/respond"
	"github.com/sakif/dating-profiles/internal/service"
	"github.com/sakif/dating-profiles/internal/validate"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store: it is closed after the HTTP server has stopped
// so in-flight requests can still finish their queries.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   repository.Store
	metrics *middleware.Metrics
}

// New opens the configured store and builds the server around it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s, err := NewWithStore(cfg, logger, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return s, nil
}

// OpenStore connects to the backend named by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (repository.Store, error) {
	var (
		store repository.Store
		err   error
	)

	// Assign only on success: a typed nil must not reach the interface.
	switch cfg.Driver {
	case config.DriverSQLite:
		var db *sqliteRepo.DB
		if db, err = sqliteRepo.New(ctx, cfg.SQLitePath); err == nil {
			store = db
		}
	case config.DriverPostgres:
		var pg *postgresRepo.Storage
		if pg, err = postgresRepo.New(ctx, cfg.PostgresURL); err == nil {
			store = pg
		}
	case config.DriverMongo:
		var mg *mongoRepo.Storage
		if mg, err = mongoRepo.New(ctx, cfg.MongoURL, cfg.MongoDatabase); err == nil {
			store = mg
		}
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewWithStore builds the server on an already opened store. The server
// takes ownership of it.
func NewWithStore(cfg *config.Config, logger *slog.Logger, store repository.Store) (*Server, error) {
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		metrics: middleware.NewMetrics(),
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL, s.config.Auth.Issuer)
	if err != nil {
		return err
	}
	passwords, err := auth.NewPasswordService(s.config.Auth.BcryptCost)
	if err != nil {
		return err
	}
	validator := validate.New()

	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)
	userService := service.NewUserService(s.store, s.logger)

	authHandler := handler.NewAuthHandler(authService, validator, s.logger)
	userHandler := handler.NewUserHandler(userService, validator, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.store, s.logger, s.metrics)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Recoverer(s.logger))
	s.router.Use(s.metrics.Middleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{chimiddleware.RequestIDHeader},
		MaxAge:         300,
	}))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusNotFound, respond.Envelope{Error: "Route not found"})
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, respond.Envelope{Error: "Method not allowed"})
	})

	// === Operational ===
	s.router.Get("/health", handler.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// === API ===
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Patch("/me", userHandler.HandleUpdateMe)
			r.Delete("/me", userHandler.HandleDeleteMe)
			r.Get("/{id}", userHandler.HandleGetByID)
		})
	})

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store. Start and Run call it on their way out.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start runs the server until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return s.Run(ctx)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully:
//  1. stop accepting new connections
//  2. wait up to HTTP.ShutdownTimeout for in-flight requests
//  3. close the store
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         s.config.HTTP.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.config.HTTP.ReadTimeout,
		WriteTimeout: s.config.HTTP.WriteTimeout,
		IdleTimeout:  s.config.HTTP.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("env", s.config.Env),
			slog.String("storage", s.config.Storage.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
