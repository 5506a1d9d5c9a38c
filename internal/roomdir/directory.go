// Package roomdir maintains the directory of room names offered to clients.
//
// The directory is a peripheral collaborator of the chat core: the relay
// accepts any room name a client presents at join time, whether or not it
// appears here. The directory only backs the room listing and admin
// endpoints.
package roomdir

import (
	"context"
	"errors"
)

// ErrRoomNotFound is returned by DeleteOne when no room has the given id.
var ErrRoomNotFound = errors.New("roomdir: room not found")

// Room is a named entry in the directory.
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Directory stores room names. Implementations must be safe for concurrent
// use by HTTP handlers.
type Directory interface {
	// List returns all rooms in creation order.
	List(ctx context.Context) ([]Room, error)

	// Create adds a room with the given name and returns it. Names are
	// opaque strings; duplicates are permitted, matching the original
	// directory semantics.
	Create(ctx context.Context, name string) (Room, error)

	// DeleteOne removes the room with the given id. It returns
	// ErrRoomNotFound when the id is unknown.
	DeleteOne(ctx context.Context, id string) error

	// DeleteAll removes every room.
	DeleteAll(ctx context.Context) error
}
