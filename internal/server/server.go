// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"trendscope/internal/config"
	"trendscope/internal/domain/trend"
	"trendscope/internal/server/handlers"
	"trendscope/internal/service/analysis"
	"trendscope/internal/service/ingest"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	alertsSubject string,
	natsConn *nats.Conn,
	store trend.Store,
	pipeline *ingest.Pipeline,
	engine *analysis.Engine,
	log zerolog.Logger,
) *Server {
	log = log.With().Str("component", "http").Logger()
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	ingestHandler := handlers.NewIngestHandler(pipeline, log)
	reportHandler := handlers.NewReportHandler(engine, store, log)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			r.Post("/observations", ingestHandler.PostObservations)

			r.Route("/keywords", func(r chi.Router) {
				r.Get("/{keyword}", reportHandler.GetKeyword)
			})

			r.Get("/report", reportHandler.GetReport)
			r.Get("/stats", reportHandler.GetStats)
		})
	})

	// WebSocket endpoint streaming breakout/arbitrage alerts
	if natsConn != nil {
		router.Get("/ws/alerts", handlers.AlertsWebSocketHandler(natsConn, alertsSubject, log))
	}

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
