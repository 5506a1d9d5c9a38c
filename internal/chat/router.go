// Package chat routes inbound protocol events to registry mutations and
// outbound broadcasts via the Router type.
package chat

import (
	"sync"
	"time"

	"github.com/hackchat/relay/internal/logger"
)

// Router receives inbound protocol events from each connection and
// orchestrates registry mutations plus outbound broadcasts. Every connection
// moves through a two-state machine: unjoined until a successful joinRoom,
// joined until disconnect. State is carried by registry presence, so invalid
// transitions are detected by lookup and ignored.
//
// A single mutex serializes all handlers. Each membership mutation and the
// presence broadcast that follows it happen under one lock hold, so
// concurrent joins and disconnects on the same room always observe
// consistent presence snapshots.
type Router struct {
	mu        sync.Mutex
	registry  *Registry
	transport Transport
	now       func() time.Time
}

// NewRouter creates a Router that owns the given registry and sends
// outbound events through the given transport.
func NewRouter(registry *Registry, transport Transport) *Router {
	return NewRouterWithClock(registry, transport, time.Now)
}

// NewRouterWithClock is NewRouter with an injectable clock so tests can pin
// message timestamps.
func NewRouterWithClock(registry *Registry, transport Transport, clock func() time.Time) *Router {
	if clock == nil {
		clock = time.Now
	}
	return &Router{
		registry:  registry,
		transport: transport,
		now:       clock,
	}
}

// HandleJoin processes a joinRoom event: it registers the user, subscribes
// the connection to the room, welcomes the joiner privately, announces the
// join to the rest of the room, and broadcasts the updated member list to
// everyone in the room including the joiner.
//
// A join for a connection that is already joined is a protocol violation;
// it is logged and ignored so the registry never holds two users for one
// connection.
func (rt *Router) HandleJoin(connID, username, room string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	user, err := rt.registry.Add(connID, username, room)
	if err != nil {
		logger.Warnf("Ignoring duplicate join from connection %s (username %q, room %q)", connID, username, room)
		return
	}

	rt.transport.Subscribe(connID, room)

	rt.transport.SendTo(connID, NewMessageEvent(FormatMessage(BotName, WelcomeText, rt.now())))
	rt.transport.BroadcastRoom(room, NewMessageEvent(FormatMessage(BotName, user.Username+" has joined the chat", rt.now())), connID)
	rt.transport.BroadcastRoom(room, NewRoomUsersEvent(room, rt.registry.UsersInRoom(room)), "")

	logger.Infof("User %q joined room %q on connection %s", user.Username, room, connID)
}

// HandleChatMessage processes a chatMessage event by broadcasting the text
// to the sender's room, sender included, so the sender's own message
// reflects the server-confirmed timestamp.
//
// A message from a connection that never joined, or whose user was already
// removed by a racing disconnect, is dropped silently: no broadcast, no
// error surfaced to other clients.
func (rt *Router) HandleChatMessage(connID, text string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	user, ok := rt.registry.Get(connID)
	if !ok {
		logger.Debug("Dropping chat message from unjoined connection " + connID)
		return
	}

	rt.transport.BroadcastRoom(user.Room, NewMessageEvent(FormatMessage(user.Username, text, rt.now())), "")
}

// HandleDisconnect processes a connection teardown. It is idempotent and
// valid from either state: if the connection never joined there is nothing
// to do. Otherwise the user is removed and the remaining room members
// receive a leave announcement followed by the updated member list. The
// departed connection itself receives nothing; it is already gone.
func (rt *Router) HandleDisconnect(connID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	user, ok := rt.registry.Remove(connID)
	if !ok {
		return
	}

	rt.transport.BroadcastRoom(user.Room, NewMessageEvent(FormatMessage(BotName, user.Username+" has left the chat", rt.now())), connID)
	rt.transport.BroadcastRoom(user.Room, NewRoomUsersEvent(user.Room, rt.registry.UsersInRoom(user.Room)), connID)

	logger.Infof("User %q left room %q on connection %s", user.Username, user.Room, connID)
}

// UsersInRoom exposes a consistent snapshot of current room membership, for
// presence displays outside the event path.
func (rt *Router) UsersInRoom(room string) []User {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.registry.UsersInRoom(room)
}
