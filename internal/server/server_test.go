package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gridstream/internal/catalog"
	"github.com/san-kum/gridstream/internal/config"
	"github.com/san-kum/gridstream/internal/grid"
	"github.com/san-kum/gridstream/internal/logging"
	"github.com/san-kum/gridstream/internal/session"
	"github.com/san-kum/gridstream/internal/sim"
	"github.com/san-kum/gridstream/internal/stream"
	"github.com/san-kum/gridstream/internal/telemetry"
)

type fakeAdapter struct {
	calls  int
	failAt int
	dt     float64
}

func (f *fakeAdapter) Step(useDiagonals, wrap bool) {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		panic("kernel blew up")
	}
}

func (f *fakeAdapter) Grid() grid.Snapshot {
	return grid.Snapshot{{float64(f.calls), 0}, {0, 0}}
}

func (f *fakeAdapter) Metric() float64 { return float64(f.calls) }

func (f *fakeAdapter) TimeStep() float64 { return f.dt }

func newTestServer(t *testing.T) (*httptest.Server, *session.Registry) {
	t.Helper()
	cat := catalog.New()
	cat.Register(catalog.Entry{
		ID:   "fake",
		Name: "Fake",
		Construct: func(map[string]float64) (sim.Adapter, error) {
			return &fakeAdapter{}, nil
		},
	})
	cat.Register(catalog.Entry{
		ID:   "slow",
		Name: "Slow",
		Construct: func(map[string]float64) (sim.Adapter, error) {
			return &fakeAdapter{dt: 3600}, nil
		},
	})

	hub := stream.NewHub()
	metrics := telemetry.New()
	log := logging.New("error")
	reg := session.NewRegistry(cat, hub, session.WithLogger(log), session.WithMetrics(metrics))

	cfg := config.Default()
	srv := New(cfg, cat, reg, hub, metrics, log)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, reg
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) stream.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env stream.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func sendStart(t *testing.T, conn *websocket.Conn, simID string, steps int) {
	t.Helper()
	env, err := stream.Encode(stream.TypeStartSimulation, map[string]any{
		"sim_id":             simID,
		"parameters":         map[string]any{},
		"initial_conditions": map[string]any{},
		"steps":              steps,
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(env))
}

func TestListSimulators(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/simulators")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rows []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "fake", rows[0].ID)
	assert.Equal(t, "Fake", rows[0].Name)
}

func TestGetSimulator(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/simulators/fake")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/simulators/plasma")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartStreamsFrames(t *testing.T) {
	ts, reg := newTestServer(t)
	conn := dialWS(t, ts)
	sendStart(t, conn, "fake", 3)

	env := readEnvelope(t, conn)
	require.Equal(t, stream.TypeSimulationStarted, env.Type)
	var started stream.Started
	require.NoError(t, env.Decode(&started))
	assert.NotEmpty(t, started.Room)
	assert.Equal(t, "fake", started.SimID)
	assert.Equal(t, 3, started.Steps)

	for i := 0; i < 3; i++ {
		env = readEnvelope(t, conn)
		require.Equal(t, stream.TypeGridUpdate, env.Type)
		var u stream.GridUpdate
		require.NoError(t, env.Decode(&u))
		assert.Equal(t, i, u.Step, "frames must arrive in step order")
		assert.Equal(t, 3, u.TotalSteps)
	}

	require.Eventually(t, func() bool { return reg.Len() == 0 },
		2*time.Second, 10*time.Millisecond, "completed session should leave the registry")
}

func TestStopSimulation(t *testing.T) {
	ts, reg := newTestServer(t)
	conn := dialWS(t, ts)
	sendStart(t, conn, "slow", 100)

	env := readEnvelope(t, conn)
	require.Equal(t, stream.TypeSimulationStarted, env.Type)
	var started stream.Started
	require.NoError(t, env.Decode(&started))

	env = readEnvelope(t, conn)
	require.Equal(t, stream.TypeGridUpdate, env.Type)

	stop, err := stream.Encode(stream.TypeStopSimulation, stream.StopRequest{Room: started.Room})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(stop))

	env = readEnvelope(t, conn)
	require.Equal(t, stream.TypeSimulationStopped, env.Type)
	var stopped stream.Stopped
	require.NoError(t, env.Decode(&stopped))
	assert.Equal(t, started.Room, stopped.Room)
	assert.Equal(t, session.ReasonUser, stopped.Reason)
	assert.Zero(t, reg.Len())

	// Nothing follows the stopped message.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var extra stream.Envelope
	err = conn.ReadJSON(&extra)
	require.Error(t, err, "unexpected message after simulation_stopped: %s", extra.Type)
}

func TestStartMissingFields(t *testing.T) {
	ts, reg := newTestServer(t)
	conn := dialWS(t, ts)

	env, err := stream.Encode(stream.TypeStartSimulation, map[string]any{"sim_id": "fake"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(env))

	got := readEnvelope(t, conn)
	require.Equal(t, stream.TypeSimulationError, got.Type)
	var em stream.ErrorMessage
	require.NoError(t, got.Decode(&em))
	assert.Contains(t, em.Error, "initial_conditions")
	assert.Zero(t, reg.Len(), "rejected start must not register a session")
}

func TestStartUnknownSimulator(t *testing.T) {
	ts, reg := newTestServer(t)
	conn := dialWS(t, ts)
	sendStart(t, conn, "plasma", 5)

	got := readEnvelope(t, conn)
	require.Equal(t, stream.TypeSimulationError, got.Type)
	assert.Zero(t, reg.Len())
}

func TestUnknownMessageType(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dialWS(t, ts)
	require.NoError(t, conn.WriteJSON(stream.Envelope{Type: "dance"}))

	got := readEnvelope(t, conn)
	require.Equal(t, stream.TypeSimulationError, got.Type)
	var em stream.ErrorMessage
	require.NoError(t, got.Decode(&em))
	assert.Contains(t, em.Error, "unknown message type")
}

func TestStopMissingRoom(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dialWS(t, ts)

	stop, err := stream.Encode(stream.TypeStopSimulation, stream.StopRequest{})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(stop))

	got := readEnvelope(t, conn)
	require.Equal(t, stream.TypeSimulationError, got.Type)
}

func TestDisconnectStopsOwnedSessions(t *testing.T) {
	ts, reg := newTestServer(t)
	conn := dialWS(t, ts)
	sendStart(t, conn, "slow", 100)

	env := readEnvelope(t, conn)
	require.Equal(t, stream.TypeSimulationStarted, env.Type)
	require.Equal(t, 1, reg.Len())

	conn.Close()
	require.Eventually(t, func() bool { return reg.Len() == 0 },
		2*time.Second, 10*time.Millisecond, "dropped client must take its sessions down")
}

func TestTwoClientsAreIsolated(t *testing.T) {
	ts, reg := newTestServer(t)
	a := dialWS(t, ts)
	b := dialWS(t, ts)

	sendStart(t, a, "slow", 100)
	env := readEnvelope(t, a)
	require.Equal(t, stream.TypeSimulationStarted, env.Type)
	env = readEnvelope(t, a)
	require.Equal(t, stream.TypeGridUpdate, env.Type)

	// Client b never joined a's room and must see nothing.
	require.NoError(t, b.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var leak stream.Envelope
	err := b.ReadJSON(&leak)
	require.Error(t, err, "cross-session leak: %s", leak.Type)

	require.Equal(t, 1, reg.Len())
}
