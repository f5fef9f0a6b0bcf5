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

	"dashboardBot/internal/storage"
)

// Config holds server configuration
type Config struct {
	Port       string
	Log        zerolog.Logger
	Dashboards Dashboards
	Store      *storage.Store   // optional request log
	Webhook    http.HandlerFunc // optional Telegram webhook
}

// Server is the HTTP front: health check, Telegram webhook and the JSON/PNG API.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	log        zerolog.Logger
	dashboards Dashboards
	store      *storage.Store
}

func New(cfg Config) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		log:        cfg.Log.With().Str("component", "server").Logger(),
		dashboards: cfg.Dashboards,
		store:      cfg.Store,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.Webhook)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes(webhook http.HandlerFunc) {
	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	if webhook != nil {
		s.router.Post("/telegram/webhook", webhook)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(90 * time.Second))
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/dashboard/normalized.png", s.handleNormalizedChart)
		r.Get("/dashboard/risk-return.png", s.handleRiskReturnChart)
		r.Get("/tickers", s.handleTickers)
		r.Get("/benchmarks", s.handleBenchmarks)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

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
