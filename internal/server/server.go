package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wanderblog/apiserver/config"
	"github.com/wanderblog/apiserver/internal/cache"
	"github.com/wanderblog/apiserver/internal/db"
	"github.com/wanderblog/apiserver/internal/events"
	"github.com/wanderblog/apiserver/internal/handlers"
	"github.com/wanderblog/apiserver/internal/services"
	"github.com/wanderblog/apiserver/internal/store"
	"github.com/wanderblog/apiserver/internal/token"
	"github.com/wanderblog/apiserver/types"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *events.Publisher
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := slog.Default()

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	postRepo := store.NewPostRepository(dbConn)

	tokens := token.NewService(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if !tokens.Enabled() {
		logger.Warn("JWT_SECRET is not set, token issuance is disabled")
	}

	postCache := cache.New(cfg.Redis, logger)
	if !postCache.Enabled() {
		logger.Warn("REDIS_ADDR is not set, post caching is disabled")
	}

	backend, err := events.NewBackend(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	publisher := events.NewPublisher(backend, logger)

	userService := services.NewUserService(userRepo, tokens, logger)
	postService := services.NewPostService(postRepo, userRepo, postCache, publisher, logger)

	requireAuth := handlers.RequireAuth(userService, tokens)
	requireAdmin := handlers.RequireRole(types.RoleAdmin)
	cookies := handlers.CookieConfig{Secure: cfg.Production()}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, cookies, requireAuth)
	})
	router.Route("/api/posts", func(r chi.Router) {
		handlers.PostRouter(r, postService, requireAuth, requireAdmin)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	return s.httpServer.Close()
}
