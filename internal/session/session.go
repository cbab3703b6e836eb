// Package session owns the lifecycle of running simulations: a
// registry of live sessions and the per-session runner goroutine that
// steps an adapter and publishes frames to the session's room.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/gridstream/internal/sim"
)

// Stop reasons carried in the simulation_stopped payload.
const (
	ReasonUser         = "stopped_by_user"
	ReasonDisconnected = "client_disconnected"
	ReasonIdle         = "idle_timeout"
)

// Session is one running simulation: an exclusively owned adapter, a
// target step count, and the stop signal shared between the registry
// and the runner. The session id doubles as the room id on the hub.
type Session struct {
	ID      string
	SimID   string
	Steps   int
	Created time.Time

	adapter      sim.Adapter
	useDiagonals bool
	wrap         bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	lastActive atomic.Int64 // unix nanos of the last published frame
	launched   atomic.Bool
}

// Stop requests teardown. The first call wins; the runner observes the
// closed channel at the top of its next iteration or mid-sleep.
// Returns true if this call performed the transition.
func (s *Session) Stop() bool {
	stopped := false
	s.stopOnce.Do(func() {
		close(s.stop)
		stopped = true
	})
	return stopped
}

func (s *Session) stopRequested() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Done is closed when the runner goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

// IdleSince reports the time of the last published frame, or the
// creation time if nothing was published yet.
func (s *Session) IdleSince() time.Time {
	if n := s.lastActive.Load(); n != 0 {
		return time.Unix(0, n)
	}
	return s.Created
}
