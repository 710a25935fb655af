// Package server assembles the HTTP API: shared middleware, public account
// routes and the token-protected feature routes.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/ad-verify/internal/ads"
	"github.com/ziadkadry99/ad-verify/internal/api"
	"github.com/ziadkadry99/ad-verify/internal/audit"
	"github.com/ziadkadry99/ad-verify/internal/auth"
	"github.com/ziadkadry99/ad-verify/internal/chat"
	"github.com/ziadkadry99/ad-verify/internal/knowledge"
	"github.com/ziadkadry99/ad-verify/internal/metrics"
	"github.com/ziadkadry99/ad-verify/internal/notifications"
	"github.com/ziadkadry99/ad-verify/internal/verifier"
)

// RequestTimeout bounds every non-streaming API request.
const RequestTimeout = 120 * time.Second

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Deps are the long-lived collaborators the handlers are built from.
// Metrics may be nil.
type Deps struct {
	Users         *auth.Store
	Audit         *audit.Store
	Ads           *ads.Store
	Knowledge     *knowledge.Store
	Verifier      *verifier.Service
	Chat          *chat.Bot
	Notifications *notifications.Store
	Metrics       *metrics.Metrics
}

// Server is the ad verification HTTP server.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
}

// New creates a server and builds its router.
func New(cfg Config, deps Deps) *Server {
	s := &Server{cfg: cfg, deps: deps}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.deps.Metrics.Middleware)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))
		auth.RegisterRoutes(r, s.deps.Users)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.deps.Users))
			verifier.RegisterRoutes(r, s.deps.Verifier)
			ads.RegisterRoutes(r, s.deps.Ads, s.deps.Audit)
			chat.RegisterRoutes(r, s.deps.Chat)
			knowledge.RegisterRoutes(r, s.deps.Knowledge, s.deps.Audit)
			audit.RegisterRoutes(r, s.deps.Audit)
			notifications.RegisterRoutes(r, s.deps.Notifications, s.deps.Audit)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.deps.Users))
		chat.RegisterWebSocket(r, s.deps.Chat)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	knowledgeState := "unavailable"
	if s.deps.Knowledge != nil && s.deps.Knowledge.Ready() {
		knowledgeState = "ready"
	}
	api.JSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"knowledge": knowledgeState,
	})
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("adverify server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
