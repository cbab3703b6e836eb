package session

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/gridstream/internal/stream"
)

// run drives one session to completion: step the adapter, snapshot,
// publish, pace. The stop signal is checked at the top of every
// iteration and again right before publishing, so no frame goes out
// once the registry entry is gone. An adapter failure becomes a
// simulation_error message and tears the session down without
// touching any other session.
func (r *Registry) run(s *Session) {
	defer close(s.done)

	for step := 0; step < s.Steps; step++ {
		if s.stopRequested() {
			return
		}

		frame, err := r.stepOnce(s, step)
		if err != nil {
			r.fail(s, err)
			return
		}

		if s.stopRequested() {
			return
		}
		env, err := stream.Encode(stream.TypeGridUpdate, frame)
		if err != nil {
			r.fail(s, fmt.Errorf("step %d: %w", step, err))
			return
		}
		r.hub.Publish(s.ID, env)
		s.touch(time.Now())
		r.metrics.FramesPublished.Inc()

		if dt := s.adapter.TimeStep(); dt > 0 {
			select {
			case <-time.After(time.Duration(dt * float64(time.Second))):
			case <-s.stop:
				return
			}
		}
	}

	// Ran to completion: drop the registry entry quietly. The message
	// contract reserves simulation_stopped for explicit stops.
	r.remove(s.ID)
	r.log.Info("session completed", "session", s.ID, "steps", s.Steps)
}

// stepOnce advances the adapter and builds the frame, converting a
// kernel panic into an error instead of killing the process.
func (r *Registry) stepOnce(s *Session, step int) (frame stream.GridUpdate, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("step %d: simulator panic: %v", step, rec)
		}
	}()

	s.adapter.Step(s.useDiagonals, s.wrap)
	snap := s.adapter.Grid()
	if !snap.Rectangular() {
		return frame, fmt.Errorf("step %d: simulator produced a non-rectangular grid", step)
	}
	metric := s.adapter.Metric()
	if math.IsNaN(metric) || math.IsInf(metric, 0) {
		return frame, fmt.Errorf("step %d: simulator metric is not finite", step)
	}
	return stream.GridUpdate{
		Step:       step,
		Grid:       snap,
		Metric:     metric,
		TotalSteps: s.Steps,
	}, nil
}

// fail publishes simulation_error to the session's room and removes
// the session. Errors reach only the room's members, never other
// sessions.
func (r *Registry) fail(s *Session, cause error) {
	r.metrics.SessionErrors.Inc()
	r.log.Error("session failed", "session", s.ID, "simulator", s.SimID, "error", cause)
	env, err := stream.Encode(stream.TypeSimulationError, stream.ErrorMessage{Error: cause.Error()})
	if err == nil {
		r.hub.Publish(s.ID, env)
	}
	s.Stop()
	r.remove(s.ID)
}
