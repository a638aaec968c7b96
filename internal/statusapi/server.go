// Package statusapi is the optional, separately-addressed admin
// surface (SPEC_FULL.md §2 item 9): read-only observability over the
// broadcast server's state, never a second data-plane protocol.
package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/tailsrv/tailsrv/internal/broadcast"
	"github.com/tailsrv/tailsrv/internal/logging"
)

// pushInterval is how often the WebSocket status feed sends a fresh
// snapshot to each connected monitor.
const pushInterval = time.Second

// Snapshot is the observable state of the broadcast server at an
// instant.
type Snapshot struct {
	Path          string  `json:"path"`
	FileLength    uint64  `json:"fileLength"`
	ClientCount   int     `json:"clientCount"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// Server serves /healthz, /status, and /status/ws.
type Server struct {
	bcast      *broadcast.Server
	authSecret string
	startedAt  time.Time
	mux        *chi.Mux
}

// New builds the admin router. authSecret may be empty, meaning no
// auth is required.
func New(bcast *broadcast.Server, authSecret string) *Server {
	s := &Server{
		bcast:      bcast,
		authSecret: authSecret,
		startedAt:  time.Now(),
		mux:        chi.NewRouter(),
	}

	s.mux.Get("/healthz", s.handleHealthz)
	s.mux.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/status", s.handleStatus)
		r.Get("/status/ws", s.handleStatusWS)
	})

	return s
}

// Handler returns the admin HTTP handler, suitable for http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthorizedRequest(s.authSecret, r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// snapshot reads the broadcast server's current state. File is nil
// until the broadcast file is acquired (it may not exist yet), so
// Path and FileLength report zero values until then rather than
// dereferencing a nil pointer.
func (s *Server) snapshot() Snapshot {
	var path string
	var length uint64
	if f := s.bcast.File; f != nil {
		path = f.Path()
		length = f.Length().Load()
	}
	return Snapshot{
		Path:          path,
		FileLength:    length,
		ClientCount:   s.bcast.Registry.Count(),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshot())
}

// handleStatusWS streams a JSON Snapshot every pushInterval until the
// client disconnects or the request context is canceled.
func (s *Server) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logging.Warnf("statusapi: accept: %v", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	ctx := r.Context()
	ticker := time.NewTicker(pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.writeSnapshot(ctx, conn); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeSnapshot(ctx context.Context, conn *websocket.Conn) error {
	data, err := json.Marshal(s.snapshot())
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
