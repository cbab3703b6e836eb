// Package server exposes the simulator catalog over HTTP and streams
// simulation sessions over a WebSocket endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/gridstream/internal/catalog"
	"github.com/san-kum/gridstream/internal/config"
	"github.com/san-kum/gridstream/internal/session"
	"github.com/san-kum/gridstream/internal/stream"
	"github.com/san-kum/gridstream/internal/telemetry"
)

type Server struct {
	addr         string
	defaultSteps int
	subBuffer    int

	catalog  *catalog.Catalog
	registry *session.Registry
	hub      *stream.Hub
	metrics  *telemetry.Metrics
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func New(cfg *config.Config, cat *catalog.Catalog, reg *session.Registry, hub *stream.Hub, metrics *telemetry.Metrics, log *slog.Logger) *Server {
	return &Server{
		addr:         cfg.Addr,
		defaultSteps: cfg.DefaultSteps,
		subBuffer:    cfg.SubscriberBuffer,
		catalog:      cat,
		registry:     reg,
		hub:          hub,
		metrics:      metrics,
		log:          log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The legacy server accepted any origin; same policy here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/simulators", s.handleList)
	mux.HandleFunc("GET /api/simulators/{id}", s.handleSimulator)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// ListenAndServe runs the HTTP server until ctx is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	type row struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Scheme      string `json:"scheme,omitempty"`
	}
	entries := s.catalog.List()
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row{ID: e.ID, Name: e.Name, Description: e.Description, Scheme: e.Scheme})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleSimulator(w http.ResponseWriter, r *http.Request) {
	e, err := s.catalog.Get(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
