package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/fiscalguide/fiscalguide/internal/modules/advisor"
	authmodule "github.com/fiscalguide/fiscalguide/internal/modules/auth"
	"github.com/fiscalguide/fiscalguide/internal/modules/banking"
	"github.com/fiscalguide/fiscalguide/internal/modules/transactions"
	"github.com/fiscalguide/fiscalguide/internal/modules/users"
)

// Handlers collects the module handlers the server routes to.
type Handlers struct {
	Auth         *authmodule.Handler
	Users        *users.Handler
	Transactions *transactions.Handler
	Banking      *banking.Handler
	Advisor      *advisor.Handler
	Tokens       *authmodule.TokenIssuer
}

// Config holds server configuration
type Config struct {
	Port     int
	Log      zerolog.Logger
	Handlers Handlers
	DevMode  bool
}

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	handlers Handlers
	port     int
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		handlers: cfg.Handlers,
		port:     cfg.Port,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handlers.Auth.HandleSignup)
			r.Post("/login", s.handlers.Auth.HandleLogin)
		})

		// Everything below requires a valid session token.
		r.Group(func(r chi.Router) {
			r.Use(s.handlers.Tokens.Middleware)

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile", s.handlers.Users.HandleProfile)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", s.handlers.Transactions.HandleList)
				r.Post("/upload", s.handlers.Transactions.HandleUpload)
				r.Post("/tax-summary", s.handlers.Transactions.HandleCreateTaxSummary)
				r.Get("/tax-summary", s.handlers.Transactions.HandleGetTaxSummaries)
			})

			r.Route("/plaid", func(r chi.Router) {
				r.Post("/create_link_token", s.handlers.Banking.HandleCreateLinkToken)
				r.Post("/exchange_public_token", s.handlers.Banking.HandleExchangePublicToken)
				r.Get("/status", s.handlers.Banking.HandleStatus)
				r.Get("/transactions", s.handlers.Banking.HandleSync)
			})

			r.Route("/chat", func(r chi.Router) {
				r.Post("/query", s.handlers.Advisor.HandleQuery)
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
