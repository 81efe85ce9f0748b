// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: it assembles the full dependency
// chain (database → services → handlers) and maps URL patterns to handler
// functions. Handlers never touch the database directly and services never
// touch HTTP — all the wiring that connects the layers happens here.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/contacts-api/internal/auth"
	"github.com/sakif/contacts-api/internal/config"
	"github.com/sakif/contacts-api/internal/handler"
	"github.com/sakif/contacts-api/internal/middleware"
	sqliteRepo "github.com/sakif/contacts-api/internal/repository/sqlite"
	"github.com/sakif/contacts-api/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown. The database connection in particular is closed during graceful
// shutdown so the WAL is flushed and the file lock released.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
//
//  1. open the database (sqlite.New)
//  2. build the token and password services from config
//  3. build the auth and contact services on top of the repositories
//  4. wire handlers to routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// Route structure:
//
//	GET    /                       → greeting (public)
//	POST   /signup                 → register account (public)
//	POST   /login                  → form login, returns token pair (public)
//	GET    /refresh_token          → rotate refresh token (bearer refresh token)
//	GET    /secret                 → smoke-test route (bearer access token)
//	GET    /contacts/search/       → substring search (public)
//	GET    /contacts/birthday/     → upcoming birthdays (public)
//	POST   /contacts/              → create contact (bearer access token)
//	GET    /contacts/              → list own contacts (bearer access token)
//	GET    /contacts/{id}          → fetch own contact (bearer access token)
//	PUT    /contacts/{id}          → replace own contact (bearer access token)
//	DELETE /contacts/{id}          → delete own contact (bearer access token)
//
// Middleware order matters: RequestID runs first so the logger can include
// the ID, Recoverer runs before our logger so a panic still produces a log
// line with status 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.AccessTokenTTL, s.config.RefreshTokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	contactService := service.NewContactService(s.db.Contacts(), s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	contactHandler := handler.NewContactHandler(contactService, s.logger)

	s.router.Get("/", authHandler.HandleRoot)
	s.router.Post("/signup", authHandler.HandleSignup)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Get("/refresh_token", authHandler.HandleRefresh)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(authService))
		r.Get("/secret", authHandler.HandleSecret)
	})

	s.router.Route("/contacts", func(r chi.Router) {
		// Search and birthday lookups are deliberately open: they query
		// across all accounts and require no token.
		r.Get("/search/", contactHandler.HandleSearch)
		r.Get("/birthday/", contactHandler.HandleBirthdays)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(authService))
			r.Post("/", contactHandler.HandleCreate)
			r.Get("/", contactHandler.HandleList)
			r.Get("/{id}", contactHandler.HandleGetByID)
			r.Put("/{id}", contactHandler.HandleUpdate)
			r.Delete("/{id}", contactHandler.HandleDelete)
		})
	})

	return nil
}

// Handler exposes the fully wired router, mainly for tests that drive the
// server through httptest without binding a real port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources without going through Start's
// shutdown path. Tests use this; Start calls it itself.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds to finish, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

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
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
