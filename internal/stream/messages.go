// Package stream defines the wire protocol between server and clients
// and the per-session publish/subscribe hub that carries it.
package stream

import (
	"encoding/json"
	"fmt"

	"github.com/san-kum/gridstream/internal/grid"
	"github.com/san-kum/gridstream/internal/sim"
)

// Message types. Client to server: start_simulation, stop_simulation.
// Server to client: the rest.
const (
	TypeStartSimulation   = "start_simulation"
	TypeStopSimulation    = "stop_simulation"
	TypeSimulationStarted = "simulation_started"
	TypeGridUpdate        = "grid_update"
	TypeSimulationStopped = "simulation_stopped"
	TypeSimulationError   = "simulation_error"
)

// Envelope wraps every message with its type tag.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode builds an envelope around a payload value.
func Encode(msgType string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: msgType}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", msgType, err)
	}
	return Envelope{Type: msgType, Payload: raw}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("message %s has no payload", e.Type)
	}
	return json.Unmarshal(e.Payload, v)
}

// StartRequest asks the server to create and run a new session.
type StartRequest struct {
	SimID             string         `json:"sim_id"`
	Parameters        map[string]any `json:"parameters"`
	InitialConditions sim.Conditions `json:"initial_conditions"`
	Steps             int            `json:"steps,omitempty"`
}

// Started acknowledges session creation; Room identifies the session's
// channel and doubles as the stop handle.
type Started struct {
	Room  string `json:"room"`
	SimID string `json:"simulator_id"`
	Steps int    `json:"steps"`
}

// GridUpdate is one frame of simulation state.
type GridUpdate struct {
	Step       int           `json:"step"`
	Grid       grid.Snapshot `json:"grid"`
	Metric     float64       `json:"metric"`
	TotalSteps int           `json:"total_steps"`
}

// Stopped announces session teardown to the room.
type Stopped struct {
	Room   string `json:"room,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ErrorMessage carries a human-readable failure cause.
type ErrorMessage struct {
	Error string `json:"error"`
}

// StopRequest asks the server to halt a running session.
type StopRequest struct {
	Room string `json:"room"`
}
