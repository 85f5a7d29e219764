// Package server wires the websocket signaling channel, the HTTP API,
// and static artifact serving into one handler.
package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/meetpulse/backend/internal/auth"
	"github.com/meetpulse/backend/internal/metrics"
	"github.com/meetpulse/backend/internal/signaling"
	"github.com/meetpulse/backend/internal/storage"
	"github.com/meetpulse/backend/internal/transcription"
)

// Server holds every collaborator the HTTP surface needs.
type Server struct {
	hub      *signaling.Hub
	pipeline *transcription.Pipeline
	store    storage.Store
	auth     *auth.Service
	metrics  *metrics.Metrics

	uploadsDir     string
	allowedOrigins []string
	upgrader       websocket.Upgrader

	log zerolog.Logger
}

// New creates a Server.
func New(
	hub *signaling.Hub,
	pipeline *transcription.Pipeline,
	store storage.Store,
	authSvc *auth.Service,
	m *metrics.Metrics,
	uploadsDir string,
	allowedOrigins []string,
	log zerolog.Logger,
) *Server {
	s := &Server{
		hub:            hub,
		pipeline:       pipeline,
		store:          store,
		auth:           authSvc,
		metrics:        m,
		uploadsDir:     uploadsDir,
		allowedOrigins: allowedOrigins,
		log:            log.With().Str("component", "server").Logger(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /ws", s.serveWs)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("POST /api/summary", s.requireAuth(s.handleCreateSummary))
	mux.HandleFunc("GET /api/summary", s.requireAuth(s.handleListSummaries))
	mux.HandleFunc("DELETE /api/summary/{id}", s.requireAuth(s.handleDeleteSummary))

	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(s.uploadsDir))))

	return s.cors(mux)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// serveWs upgrades the connection, assigns it an identity, and hands
// it to the hub.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := signaling.NewClient(uuid.NewString(), s.hub, conn, s.log)
	s.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// checkOrigin admits same-origin requests plus the configured
// allowlist. An empty Origin header (non-browser clients) is accepted.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return s.originAllowed(origin)
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
