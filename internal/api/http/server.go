// Package apihttp is the loopback control API the desktop shell uses to
// select media and toggle sharing.
package apihttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"nssplayer/internal/domain"
)

const healthPath = "/internal/health"

type SharingService interface {
	SelectFile(path string) (domain.MediaRef, error)
	ClearFile()
	CurrentMedia() domain.MediaRef
	StartSharing(ctx context.Context) domain.ShareResult
	StopSharing(ctx context.Context) domain.ShareResult
	Status() domain.ShareStatus
	History(ctx context.Context, limit int) ([]domain.ShareRecord, error)
}

type Server struct {
	sharing        SharingService
	allowedOrigins []string
	rateRPS        float64
	rateBurst      int
	metrics        http.Handler
	logger         *slog.Logger
	handler        http.Handler
	wsHub          *wsHub
}

type ServerOption func(*Server)

// WithAllowedOrigins configures the CORS whitelist. When empty, any origin
// is permitted.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithRateLimit sets the global token bucket. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		s.rateRPS = rps
		s.rateBurst = burst
	}
}

// WithMetricsHandler replaces the default promhttp handler, e.g. to serve a
// custom registry.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(sharing SharingService, opts ...ServerOption) *Server {
	s := &Server{
		sharing:   sharing,
		rateRPS:   50,
		rateBurst: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = promhttp.Handler()
	}

	s.wsHub = newWSHub(s.logger)
	go s.wsHub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/media", s.handleMedia)
	mux.HandleFunc("GET /sharing", s.handleSharingStatus)
	mux.HandleFunc("POST /sharing/start", s.handleSharingStart)
	mux.HandleFunc("POST /sharing/stop", s.handleSharingStop)
	mux.HandleFunc("GET /sharing/history", s.handleSharingHistory)
	mux.HandleFunc("GET "+healthPath, s.handleHealth)
	mux.Handle("/metrics", s.metrics)
	mux.HandleFunc("/ws", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "control-api",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != healthPath
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(s.rateRPS, s.rateBurst, metricsMiddleware(corsMiddleware(s.allowedOrigins, traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	// Current status first, queued before the hub can touch the channel.
	if s.sharing != nil {
		if payload, err := jsonMessage("sharing", s.sharing.Status()); err == nil {
			client.send <- payload
		}
	}
	s.wsHub.register <- client
	go client.writePump()
	go client.readPump()
}

// NotifyStatus pushes a sharing status change to every WebSocket client.
func (s *Server) NotifyStatus(status domain.ShareStatus) {
	if s.wsHub != nil {
		s.wsHub.Broadcast("sharing", status)
	}
}

// Close stops the WebSocket hub, disconnecting all clients.
func (s *Server) Close() {
	if s.wsHub != nil {
		s.wsHub.Close()
	}
}
