package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/gridstream/internal/catalog"
	"github.com/san-kum/gridstream/internal/sim"
	"github.com/san-kum/gridstream/internal/stream"
	"github.com/san-kum/gridstream/internal/telemetry"
)

// DefaultSteps matches the legacy server's step count when a start
// request omits it.
const DefaultSteps = 1000

// Registry tracks live sessions. All map mutation goes through Create,
// Stop and remove under one mutex, so a stop can never race a
// half-registered start.
type Registry struct {
	catalog *catalog.Catalog
	hub     *stream.Hub
	log     *slog.Logger
	metrics *telemetry.Metrics

	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Registry.
type Option func(*Registry)

// WithIdleTimeout enables the expiry janitor: sessions that have not
// published a frame for longer than d are stopped. Zero disables.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *Registry) { r.idleTimeout = d }
}

func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

func NewRegistry(cat *catalog.Catalog, hub *stream.Hub, opts ...Option) *Registry {
	r := &Registry{
		catalog:  cat,
		hub:      hub,
		log:      slog.Default(),
		metrics:  telemetry.New(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create constructs a fresh adapter from the catalog, applies the
// initial conditions, and registers a new session without starting it.
// Configuration errors surface here synchronously and leave no
// registry entry behind. Callers subscribe to the session's room and
// then Launch, so the first frame cannot outrun the subscription.
func (r *Registry) Create(simID string, params map[string]any, cond sim.Conditions, steps int) (*Session, error) {
	if steps < 0 {
		return nil, fmt.Errorf("steps must be non-negative, got %d", steps)
	}
	adapter, err := r.catalog.New(simID, params)
	if err != nil {
		return nil, err
	}
	if err := sim.Apply(adapter, cond); err != nil {
		return nil, fmt.Errorf("simulator %q: %w", simID, err)
	}

	useDiagonals, wrap := cond.Toggles()
	s := &Session{
		ID:           uuid.NewString(),
		SimID:        simID,
		Steps:        steps,
		Created:      time.Now(),
		adapter:      adapter,
		useDiagonals: useDiagonals,
		wrap:         wrap,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.metrics.ActiveSessions.Inc()

	r.log.Info("session created", "session", s.ID, "simulator", simID, "steps", steps)
	return s, nil
}

// Launch starts the runner goroutine. Launching twice is a no-op.
func (r *Registry) Launch(s *Session) {
	if !s.launched.CompareAndSwap(false, true) {
		return
	}
	go r.run(s)
}

// Start is Create followed by Launch, for callers with no need to
// subscribe before the first frame.
func (r *Registry) Start(simID string, params map[string]any, cond sim.Conditions, steps int) (*Session, error) {
	s, err := r.Create(simID, params, cond, steps)
	if err != nil {
		return nil, err
	}
	r.Launch(s)
	return s, nil
}

// Stop halts the session and broadcasts simulation_stopped to its
// room. Stopping an unknown or already-stopped session is a no-op, so
// double stops produce exactly one stopped message.
func (r *Registry) Stop(id, reason string) bool {
	// Signal before removing so the runner's pre-publish check fires
	// no later than the entry disappears.
	if s, ok := r.Get(id); ok {
		s.Stop()
	}
	_, ok := r.remove(id)
	if !ok {
		return false
	}
	env, err := stream.Encode(stream.TypeSimulationStopped, stream.Stopped{Room: id, Reason: reason})
	if err == nil {
		r.hub.Publish(id, env)
	}
	r.log.Info("session stopped", "session", id, "reason", reason)
	return true
}

// Get returns the live session for id, if any.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// remove deletes the registry entry. After removal the runner will not
// publish any further frame.
func (r *Registry) remove(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok {
		r.metrics.ActiveSessions.Dec()
	}
	return s, ok
}

// RunJanitor expires idle sessions until ctx is done. No-op when no
// idle timeout is configured.
func (r *Registry) RunJanitor(ctx context.Context) {
	if r.idleTimeout <= 0 {
		return
	}
	interval := r.idleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.expire(now)
		}
	}
}

func (r *Registry) expire(now time.Time) {
	r.mu.Lock()
	var idle []string
	for id, s := range r.sessions {
		if now.Sub(s.IdleSince()) > r.idleTimeout {
			idle = append(idle, id)
		}
	}
	r.mu.Unlock()
	for _, id := range idle {
		if r.Stop(id, ReasonIdle) {
			r.metrics.SessionsExpired.Inc()
		}
	}
}
