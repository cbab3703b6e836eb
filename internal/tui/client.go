package tui

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/san-kum/gridstream/internal/stream"
)

// Client is the watch view's connection to a gridstream server. Frames
// land in a one-slot mailbox: if several arrive before the view
// renders, older ones are dropped — the heatmap only ever needs the
// latest frame. Control messages are never dropped.
type Client struct {
	conn   *websocket.Conn
	frames chan stream.GridUpdate
	events chan any

	mu     sync.Mutex
	room   string
	closed bool
}

// Events delivered alongside frames.
type (
	StartedEvent      stream.Started
	StoppedEvent      stream.Stopped
	ErrorEvent        stream.ErrorMessage
	DisconnectedEvent struct{ Err error }
)

func Dial(url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		conn:   conn,
		frames: make(chan stream.GridUpdate, 1),
		events: make(chan any, 16),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) Frames() <-chan stream.GridUpdate { return c.frames }
func (c *Client) Events() <-chan any               { return c.events }

// Start requests a new session on the server.
func (c *Client) Start(req stream.StartRequest) error {
	env, err := stream.Encode(stream.TypeStartSimulation, req)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(env)
}

// Stop asks the server to halt the session started by this client.
// No-op before simulation_started arrives.
func (c *Client) Stop() error {
	c.mu.Lock()
	room := c.room
	c.mu.Unlock()
	if room == "" {
		return nil
	}
	env, err := stream.Encode(stream.TypeStopSimulation, stream.StopRequest{Room: room})
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(env)
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		var env stream.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.events <- DisconnectedEvent{Err: err}
			}
			return
		}
		switch env.Type {
		case stream.TypeGridUpdate:
			var frame stream.GridUpdate
			if err := env.Decode(&frame); err != nil {
				continue
			}
			// Replace any pending frame instead of queueing behind it.
			select {
			case <-c.frames:
			default:
			}
			c.frames <- frame
		case stream.TypeSimulationStarted:
			var started stream.Started
			if err := env.Decode(&started); err != nil {
				continue
			}
			c.mu.Lock()
			c.room = started.Room
			c.mu.Unlock()
			c.events <- StartedEvent(started)
		case stream.TypeSimulationStopped:
			var stopped stream.Stopped
			_ = env.Decode(&stopped)
			c.events <- StoppedEvent(stopped)
		case stream.TypeSimulationError:
			var msg stream.ErrorMessage
			_ = env.Decode(&msg)
			c.events <- ErrorEvent(msg)
		}
	}
}
