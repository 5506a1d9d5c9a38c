// Package chat declares the outbound transport contract the router depends
// on, keeping the core independent of any particular connection layer.
package chat

// Event names carried in the wire envelope. Inbound events are decoded by
// the transport and dispatched to the Router; outbound events are produced
// by the Router and delivered by the transport.
const (
	EventJoinRoom    = "joinRoom"
	EventChatMessage = "chatMessage"
	EventMessage     = "message"
	EventRoomUsers   = "roomUsers"
)

// Event is the envelope for every frame exchanged with clients.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// JoinRoomPayload is the inbound joinRoom event body.
type JoinRoomPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// ChatMessagePayload is the inbound chatMessage event body. The sender is
// implied by the connection the frame arrived on.
type ChatMessagePayload struct {
	Text string `json:"text"`
}

// NewMessageEvent wraps a Message for delivery.
func NewMessageEvent(msg Message) Event {
	return Event{Name: EventMessage, Data: msg}
}

// NewRoomUsersEvent wraps a presence update for delivery.
func NewRoomUsersEvent(room string, users []User) Event {
	return Event{Name: EventRoomUsers, Data: RoomUsers{Room: room, Users: users}}
}

// Transport is the connection layer the router issues outbound sends
// through. All sends are fire-and-forget: delivery failure to one recipient
// must not prevent delivery to others, and a send to a connection that has
// already gone away is a no-op. Any implementation (WebSocket hub, test
// harness) satisfies the contract.
type Transport interface {
	// Subscribe adds the connection to the room's broadcast group. The
	// transport drops the subscription on its own when the connection closes.
	Subscribe(connID, room string)

	// SendTo delivers an event to a single connection.
	SendTo(connID string, ev Event)

	// BroadcastRoom delivers an event to every connection subscribed to the
	// room, except the connection named by exclude. An empty exclude means
	// every subscriber receives the event.
	BroadcastRoom(room string, ev Event, exclude string)
}
