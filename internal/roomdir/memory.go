package roomdir

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryDirectory is an in-memory Directory used in tests and when no
// MongoDB is configured.
type MemoryDirectory struct {
	mu    sync.RWMutex
	rooms []Room
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{}
}

// List returns all rooms in creation order.
func (d *MemoryDirectory) List(_ context.Context) ([]Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]Room, len(d.rooms))
	copy(rooms, d.rooms)
	return rooms, nil
}

// Create adds a room with the given name and returns it.
func (d *MemoryDirectory) Create(_ context.Context, name string) (Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room := Room{ID: uuid.NewString(), Name: name}
	d.rooms = append(d.rooms, room)
	return room, nil
}

// DeleteOne removes the room with the given id.
func (d *MemoryDirectory) DeleteOne(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, room := range d.rooms {
		if room.ID == id {
			d.rooms = append(d.rooms[:i], d.rooms[i+1:]...)
			return nil
		}
	}
	return ErrRoomNotFound
}

// DeleteAll removes every room.
func (d *MemoryDirectory) DeleteAll(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rooms = nil
	return nil
}
