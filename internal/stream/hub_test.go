package stream

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, step int) Envelope {
	t.Helper()
	env, err := Encode(TypeGridUpdate, GridUpdate{Step: step})
	require.NoError(t, err)
	return env
}

func TestHubRoomIsolation(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("room-a", 0)
	b := h.Subscribe("room-b", 0)

	h.Publish("room-a", envelope(t, 1))

	select {
	case env := <-a.Messages():
		assert.Equal(t, TypeGridUpdate, env.Type)
	case <-time.After(time.Second):
		t.Fatal("room-a subscriber never received the message")
	}
	select {
	case env := <-b.Messages():
		t.Fatalf("room-b leaked a message: %+v", env)
	default:
	}
}

func TestHubPublishOrdering(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("room", 16)

	for i := 0; i < 10; i++ {
		h.Publish("room", envelope(t, i))
	}

	for i := 0; i < 10; i++ {
		env := <-sub.Messages()
		var u GridUpdate
		require.NoError(t, env.Decode(&u))
		assert.Equal(t, i, u.Step)
	}
}

func TestHubSlowSubscriberDropsOldest(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("room", 4)

	// Nobody reads while ten messages arrive at a four-slot buffer.
	for i := 0; i < 10; i++ {
		h.Publish("room", envelope(t, i))
	}

	assert.Equal(t, 6, sub.Dropped())
	for want := 6; want < 10; want++ {
		env := <-sub.Messages()
		var u GridUpdate
		require.NoError(t, env.Decode(&u))
		assert.Equal(t, want, u.Step, "surviving messages must be the newest, in order")
	}
	select {
	case env := <-sub.Messages():
		t.Fatalf("unexpected extra message: %+v", env)
	default:
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("room", 0)
	h.Unsubscribe("room", sub)

	_, ok := <-sub.Messages()
	assert.False(t, ok, "channel should be closed after unsubscribe")

	// Room is gone; publishing is a silent no-op.
	h.Publish("room", envelope(t, 0))
}

func TestHubUnsubscribeTwice(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("room", 0)
	h.Unsubscribe("room", sub)
	h.Unsubscribe("room", sub)
	h.Unsubscribe("other", sub)
}

func TestHubCloseRoom(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("room", 0)
	b := h.Subscribe("room", 0)

	h.Close("room")
	_, ok := <-a.Messages()
	assert.False(t, ok)
	_, ok = <-b.Messages()
	assert.False(t, ok)

	// Closing again is harmless, and a fresh subscribe recreates the room.
	h.Close("room")
	c := h.Subscribe("room", 0)
	h.Publish("room", envelope(t, 7))
	env := <-c.Messages()
	assert.Equal(t, TypeGridUpdate, env.Type)
}

func TestHubPublishAbsentRoom(t *testing.T) {
	h := NewHub()
	h.Publish("nowhere", envelope(t, 0))
}

func TestHubConcurrentPublishersStayOrderedPerRoom(t *testing.T) {
	h := NewHub()
	subs := make([]*Subscriber, 4)
	for i := range subs {
		subs[i] = h.Subscribe("room", 256)
	}

	envs := make([]Envelope, 25)
	for i := range envs {
		envs[i] = envelope(t, i)
	}

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, env := range envs {
				h.Publish("room", env)
			}
		}()
	}
	wg.Wait()

	for _, sub := range subs {
		assert.Len(t, sub.Messages(), 100)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	env, err := Encode(TypeSimulationStarted, Started{Room: "r1", SimID: "heat", Steps: 500})
	require.NoError(t, err)
	assert.Equal(t, TypeSimulationStarted, env.Type)

	var got Started
	require.NoError(t, env.Decode(&got))
	assert.Equal(t, "r1", got.Room)
	assert.Equal(t, "heat", got.SimID)
	assert.Equal(t, 500, got.Steps)
}

func TestEncodeNilPayload(t *testing.T) {
	env, err := Encode(TypeSimulationStopped, nil)
	require.NoError(t, err)
	assert.Empty(t, env.Payload)

	var s Stopped
	assert.Error(t, env.Decode(&s), "decoding an empty payload should fail")
}

func TestEncodeRejectsUnmarshalablePayload(t *testing.T) {
	_, err := Encode(TypeGridUpdate, map[string]any{"bad": func() {}})
	require.Error(t, err)
	assert.Contains(t, fmt.Sprint(err), TypeGridUpdate)
}
