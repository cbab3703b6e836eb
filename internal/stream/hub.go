package stream

import (
	"sync"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Hub fans messages out to room subscribers. Rooms are created
// implicitly on first subscribe and removed when the last subscriber
// leaves or the room is closed; publishing to an absent room is a
// no-op. Within one room, messages reach each subscriber in publish
// order.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

type room struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

// Subscriber receives one room's messages. A slow subscriber loses its
// oldest pending messages rather than stalling the publisher; the
// latest frame always gets through.
type Subscriber struct {
	ch      chan Envelope
	closeMu sync.Mutex
	closed  bool
	dropped int
}

// Messages yields the subscription stream. The channel is closed when
// the subscriber is unsubscribed or its room is closed.
func (s *Subscriber) Messages() <-chan Envelope { return s.ch }

// Dropped reports how many messages were discarded because the
// subscriber fell behind.
func (s *Subscriber) Dropped() int {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.dropped
}

func (s *Subscriber) send(env Envelope) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- env:
			return
		default:
		}
		// Full: shed the oldest pending message and retry.
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
	}
}

func (s *Subscriber) close() {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

// Subscribe joins roomID, creating the room if needed. buffer <= 0
// selects DefaultBuffer.
func (h *Hub) Subscribe(roomID string, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &Subscriber{ch: make(chan Envelope, buffer)}

	h.mu.Lock()
	r, ok := h.rooms[roomID]
	if !ok {
		r = &room{subs: make(map[*Subscriber]struct{})}
		h.rooms[roomID] = r
	}
	h.mu.Unlock()

	r.mu.Lock()
	r.subs[sub] = struct{}{}
	r.mu.Unlock()
	return sub
}

// Unsubscribe removes sub from roomID and closes its channel. The room
// is deleted once empty. Unknown rooms or subscribers are a no-op.
func (h *Hub) Unsubscribe(roomID string, sub *Subscriber) {
	h.mu.Lock()
	r, ok := h.rooms[roomID]
	h.mu.Unlock()
	if !ok {
		sub.close()
		return
	}

	r.mu.Lock()
	delete(r.subs, sub)
	empty := len(r.subs) == 0
	r.mu.Unlock()
	sub.close()

	if empty {
		h.mu.Lock()
		if cur, ok := h.rooms[roomID]; ok && cur == r {
			cur.mu.Lock()
			if len(cur.subs) == 0 {
				delete(h.rooms, roomID)
			}
			cur.mu.Unlock()
		}
		h.mu.Unlock()
	}
}

// Publish delivers env to every current subscriber of roomID. The room
// lock is held for the duration so concurrent publishes to one room
// serialize, preserving per-subscriber ordering.
func (h *Hub) Publish(roomID string, env Envelope) {
	h.mu.RLock()
	r, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for sub := range r.subs {
		sub.send(env)
	}
}

// Close tears down roomID, closing every subscriber channel.
func (h *Hub) Close(roomID string) {
	h.mu.Lock()
	r, ok := h.rooms[roomID]
	if ok {
		delete(h.rooms, roomID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for sub := range r.subs {
		sub.close()
	}
	r.subs = make(map[*Subscriber]struct{})
}
