package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackchat/relay/internal/chat"
)

// newHubClient builds a client wired to the hub and registers it directly,
// bypassing the run loop so tests do not need live WebSocket connections.
func newHubClient(hub *Hub, router *chat.Router, id string, buffer int) *Client {
	client := &Client{
		id:     id,
		send:   make(chan []byte, buffer),
		hub:    hub,
		router: router,
		addr:   "test:" + id,
	}
	hub.mutex.Lock()
	hub.clients[id] = client
	hub.mutex.Unlock()
	return client
}

func decodeFrame(t *testing.T, payload []byte) (string, json.RawMessage) {
	t.Helper()
	var frame struct {
		Name string          `json:"event"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &frame))
	return frame.Name, frame.Data
}

// TestNewHub tests the hub creation function.
// It verifies that NewHub returns a properly initialized Hub with all
// necessary channels and indexes.
func TestNewHub(t *testing.T) {
	hub := NewHub()

	require.NotNil(t, hub)
	assert.NotNil(t, hub.GetRegisterChan())
	assert.NotNil(t, hub.GetUnregisterChan())
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.rooms)
}

// TestHubSendTo tests single-connection delivery.
// It verifies that the event reaches exactly the addressed client as a
// JSON frame, and that sends to unknown connections are dropped silently.
func TestHubSendTo(t *testing.T) {
	hub := NewHub()
	router := chat.NewRouter(chat.NewRegistry(), hub)

	c1 := newHubClient(hub, router, "c1", 4)
	c2 := newHubClient(hub, router, "c2", 4)

	hub.SendTo("c1", chat.NewMessageEvent(chat.Message{Sender: "Admin", Text: "hello", Timestamp: "09:07"}))

	select {
	case payload := <-c1.send:
		name, _ := decodeFrame(t, payload)
		assert.Equal(t, chat.EventMessage, name)
	default:
		t.Fatal("expected a frame on c1's send channel")
	}
	assert.Empty(t, c2.send)

	// Unknown connection: no panic, nothing delivered.
	hub.SendTo("ghost", chat.NewMessageEvent(chat.Message{}))
}

// TestHubBroadcastRoom tests room-scoped fan-out with exclusion.
// It verifies that the event reaches every subscriber of the room except
// the excluded connection, and that other rooms receive nothing.
func TestHubBroadcastRoom(t *testing.T) {
	hub := NewHub()
	router := chat.NewRouter(chat.NewRegistry(), hub)

	c1 := newHubClient(hub, router, "c1", 4)
	c2 := newHubClient(hub, router, "c2", 4)
	c3 := newHubClient(hub, router, "c3", 4)

	hub.Subscribe("c1", "lobby")
	hub.Subscribe("c2", "lobby")
	hub.Subscribe("c3", "games")

	hub.BroadcastRoom("lobby", chat.NewMessageEvent(chat.Message{Sender: "alice", Text: "hi"}), "c1")

	assert.Empty(t, c1.send, "excluded sender must not receive the broadcast")
	assert.Len(t, c2.send, 1)
	assert.Empty(t, c3.send, "other rooms must not receive the broadcast")

	hub.BroadcastRoom("lobby", chat.NewMessageEvent(chat.Message{Sender: "alice", Text: "again"}), "")
	assert.Len(t, c1.send, 1)
	assert.Len(t, c2.send, 2)
}

// TestHubSubscribeUnknownConnection tests that subscribing a connection the
// hub no longer tracks is a harmless no-op.
func TestHubSubscribeUnknownConnection(t *testing.T) {
	hub := NewHub()

	hub.Subscribe("ghost", "lobby")

	hub.mutex.RLock()
	defer hub.mutex.RUnlock()
	assert.Empty(t, hub.rooms)
}

// TestHubRemoveClientDropsSubscription tests unregistration bookkeeping.
// It verifies that removing a client clears it from both the client map
// and its room group, and that empty room groups are deleted.
func TestHubRemoveClientDropsSubscription(t *testing.T) {
	hub := NewHub()
	router := chat.NewRouter(chat.NewRegistry(), hub)

	c1 := newHubClient(hub, router, "c1", 4)
	hub.Subscribe("c1", "lobby")

	require.True(t, hub.removeClient(c1))

	hub.mutex.RLock()
	assert.Empty(t, hub.clients)
	assert.Empty(t, hub.rooms)
	hub.mutex.RUnlock()

	// A second removal reports the client as already gone.
	assert.False(t, hub.removeClient(c1))
}

// TestHubEvictsClientWithFullBuffer tests broadcast failure isolation.
// A client whose send buffer cannot accept the frame is evicted, while the
// remaining subscribers still receive the broadcast.
func TestHubEvictsClientWithFullBuffer(t *testing.T) {
	hub := NewHub()
	router := chat.NewRouter(chat.NewRegistry(), hub)

	stuck := newHubClient(hub, router, "stuck", 0) // unbuffered, nobody reading
	healthy := newHubClient(hub, router, "healthy", 4)

	hub.Subscribe("stuck", "lobby")
	hub.Subscribe("healthy", "lobby")

	hub.BroadcastRoom("lobby", chat.NewMessageEvent(chat.Message{Sender: "alice", Text: "hi"}), "")

	assert.Len(t, healthy.send, 1)

	hub.mutex.RLock()
	_, stillThere := hub.clients["stuck"]
	hub.mutex.RUnlock()
	assert.False(t, stillThere, "stuck client should have been evicted")
	assert.True(t, stuck.closed)
}

// TestHubEvictionReapsLateJoin tests that a join dispatched by an evicted
// connection's still-draining read loop cannot leave a permanent registry
// entry behind. The room's member list must converge to the connections the
// hub actually tracks.
func TestHubEvictionReapsLateJoin(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer func() { require.NoError(t, hub.Shutdown(time.Second)) }()

	router := chat.NewRouter(chat.NewRegistry(), hub)

	newHubClient(hub, router, "bob", 64)
	router.HandleJoin("bob", "bob", "lobby")

	// Alice cannot accept a single frame, so her own welcome evicts her
	// connection and hands the disconnect to a goroutine.
	alice := newHubClient(hub, router, "alice", 0)
	router.HandleJoin("alice", "alice", "lobby")

	onlyBob := func() bool {
		users := router.UsersInRoom("lobby")
		return len(users) == 1 && users[0].Username == "bob"
	}
	require.Eventually(t, onlyBob, time.Second, 5*time.Millisecond,
		"eviction should remove alice from the room")

	// The read loop can dispatch one more frame before it notices the
	// closed connection, landing a fresh join after the reap.
	router.HandleJoin("alice", "alice", "lobby")

	// Connection teardown follows. The hub no longer tracks the client,
	// but the disconnect must still run so the late join is removed.
	hub.GetUnregisterChan() <- alice

	require.Eventually(t, onlyBob, time.Second, 5*time.Millisecond,
		"a join must not outlive its connection")
}

// TestHubRunAndShutdown tests the hub lifecycle.
// It verifies that the run loop starts, accepts a nil registration without
// panicking, and shuts down cleanly within the timeout.
func TestHubRunAndShutdown(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	select {
	case hub.GetRegisterChan() <- nil:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("run loop did not accept registration")
	}

	require.NoError(t, hub.Shutdown(time.Second))
}
