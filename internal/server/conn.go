package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/gridstream/internal/session"
	"github.com/san-kum/gridstream/internal/sim"
	"github.com/san-kum/gridstream/internal/stream"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

// client is one WebSocket connection. It may start multiple sessions;
// each subscribes it to that session's room, and sessions it started
// are stopped when the connection drops.
type client struct {
	srv  *Server
	conn *websocket.Conn
	send chan stream.Envelope

	mu    sync.Mutex
	rooms map[string]*stream.Subscriber
	owned []string

	closeOnce sync.Once
	done      chan struct{}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{
		srv:   s,
		conn:  conn,
		send:  make(chan stream.Envelope, sendBuffer),
		rooms: make(map[string]*stream.Subscriber),
		done:  make(chan struct{}),
	}
	s.log.Debug("client connected", "remote", conn.RemoteAddr())
	go c.writePump()
	c.readPump()
}

func (c *client) readPump() {
	defer c.close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env stream.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.srv.log.Debug("client read error", "error", err)
			}
			return
		}
		switch env.Type {
		case stream.TypeStartSimulation:
			c.handleStart(env)
		case stream.TypeStopSimulation:
			c.handleStop(env)
		default:
			c.sendError(fmt.Sprintf("unknown message type %q", env.Type))
		}
	}
}

// handleStart validates the request, creates the session, subscribes
// this connection to its room, acknowledges, and only then launches
// the runner so the subscription cannot miss frame zero.
func (c *client) handleStart(env stream.Envelope) {
	// Pointer fields distinguish absent required fields from empty ones.
	var req struct {
		SimID             *string         `json:"sim_id"`
		Parameters        map[string]any  `json:"parameters"`
		InitialConditions *sim.Conditions `json:"initial_conditions"`
		Steps             *int            `json:"steps"`
	}
	if err := env.Decode(&req); err != nil {
		c.sendError(fmt.Sprintf("malformed start_simulation payload: %v", err))
		return
	}
	if req.SimID == nil || req.Parameters == nil || req.InitialConditions == nil {
		c.sendError("start_simulation requires sim_id, parameters and initial_conditions")
		return
	}
	steps := c.srv.defaultSteps
	if steps <= 0 {
		steps = session.DefaultSteps
	}
	if req.Steps != nil {
		steps = *req.Steps
	}

	sess, err := c.srv.registry.Create(*req.SimID, req.Parameters, *req.InitialConditions, steps)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	sub := c.srv.hub.Subscribe(sess.ID, c.srv.subBuffer)
	c.mu.Lock()
	c.rooms[sess.ID] = sub
	c.owned = append(c.owned, sess.ID)
	c.mu.Unlock()

	started, err := stream.Encode(stream.TypeSimulationStarted, stream.Started{
		Room:  sess.ID,
		SimID: sess.SimID,
		Steps: sess.Steps,
	})
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.enqueue(started)
	go c.forward(sub)
	c.srv.registry.Launch(sess)
}

func (c *client) handleStop(env stream.Envelope) {
	var req stream.StopRequest
	if err := env.Decode(&req); err != nil {
		c.sendError(fmt.Sprintf("malformed stop_simulation payload: %v", err))
		return
	}
	if req.Room == "" {
		c.sendError("stop_simulation requires a room")
		return
	}
	// Unknown or already-stopped rooms are a no-op.
	c.srv.registry.Stop(req.Room, session.ReasonUser)
}

// forward pumps a room subscription into the connection's send queue.
func (c *client) forward(sub *stream.Subscriber) {
	for env := range sub.Messages() {
		c.enqueue(env)
	}
}

func (c *client) enqueue(env stream.Envelope) {
	select {
	case c.send <- env:
	case <-c.done:
	}
}

func (c *client) sendError(msg string) {
	env, err := stream.Encode(stream.TypeSimulationError, stream.ErrorMessage{Error: msg})
	if err != nil {
		return
	}
	c.enqueue(env)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case env := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// close tears the connection down: sessions this client started are
// stopped, room subscriptions are released, and the socket is closed.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		rooms := c.rooms
		owned := c.owned
		c.rooms = map[string]*stream.Subscriber{}
		c.owned = nil
		c.mu.Unlock()

		for _, id := range owned {
			c.srv.registry.Stop(id, session.ReasonDisconnected)
		}
		for id, sub := range rooms {
			c.srv.hub.Unsubscribe(id, sub)
		}
		_ = c.conn.Close()
	})
}
