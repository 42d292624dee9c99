package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/config"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/handler"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/openapi"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/server/middleware"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/service"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/session"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	// KeyCreatePerMinute limits key creation per client IP.
	KeyCreatePerMinute int
	// ChatPerMinute limits chat requests per client IP. Zero disables it.
	ChatPerMinute int
	Title         string
	Version       string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               5000,
		ShutdownTimeout:    30 * time.Second,
		CORSOrigins:        []string{"*"},
		KeyCreatePerMinute: 10,
		Title:              "Chatbot Honeypot",
		Version:            "dev",
	}
}

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Chat    *service.ChatService
	Auth    *service.AuthService
	Keys    *config.Store
	Cookies *session.CookieCodec
}

// Server is the top-level HTTP server. It owns the Chi router and the
// services behind it.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     *zap.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
	if err := s.setupRouter(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRouter() error {
	pages, err := handler.NewPageHandler(s.deps.Chat, s.cfg.Title, s.logger)
	if err != nil {
		return fmt.Errorf("load page templates: %w", err)
	}
	chatHandler := handler.NewChatHandler(s.deps.Chat, s.deps.Cookies, s.logger)
	keyHandler := handler.NewKeyHandler(s.deps.Keys, s.logger)
	sysHandler := handler.NewSystemHandler(s.deps.Auth, openapi.Generate("", s.cfg.Version))

	requireKey := middleware.RequireAPIKey(s.deps.Auth, s.logger)
	chatLimit := middleware.RateLimit(s.cfg.ChatPerMinute)

	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// --- Health checks and documents (no auth required) ---
	r.Get("/health", sysHandler.Health)
	r.Get("/healthz", sysHandler.Health)
	r.Get("/openapi.json", sysHandler.OpenAPI)
	r.Get("/test", pages.Tester)
	r.Get("/api/debug/auth", sysHandler.DebugAuth)

	// --- Conversation endpoints, keyed by the session cookie ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(s.deps.Cookies, s.logger))

		r.Get("/", pages.Index)

		r.Group(func(r chi.Router) {
			r.Use(chatLimit)
			r.Post("/chat", chatHandler.Chat)
			r.Post("/reset", chatHandler.Reset)

			r.Group(func(r chi.Router) {
				r.Use(requireKey)
				r.Post("/", chatHandler.Chat)
				r.Post("/api/chat", chatHandler.Chat)
				r.Post("/api/reset", chatHandler.Reset)
			})
		})
	})

	// --- API key management ---
	r.Route("/api/keys", func(r chi.Router) {
		r.With(middleware.RateLimit(s.cfg.KeyCreatePerMinute)).Post("/create", keyHandler.Create)
		r.Post("/validate", keyHandler.Validate)

		r.Group(func(r chi.Router) {
			r.Use(requireKey)
			r.Get("/list", keyHandler.List)
			r.Delete("/{key}", keyHandler.Delete)
		})
	})

	s.router = r
	return nil
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests and pending key bookkeeping.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	// WriteTimeout leaves room for slow model calls.
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in background goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.deps.Auth.Wait()
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
