// Package chat maintains the registry of live users keyed by connection
// identifier, the single source of truth for room membership.
package chat

import "errors"

// ErrDuplicateConn is returned by Registry.Add when a connection identifier
// is already registered. Duplicate registrations are a protocol violation;
// callers log and ignore them rather than overwriting the existing entry.
var ErrDuplicateConn = errors.New("chat: connection already registered")

// User represents one live connection that has joined a room. A user belongs
// to exactly one room and is immutable after creation; there is no rename or
// room-switch operation.
type User struct {
	ConnID   string `json:"-"`
	Username string `json:"username"`
	Room     string `json:"room"`
}

// Registry holds the set of currently connected users in insertion order.
// It performs no locking of its own: the Router is the only writer and
// serializes all access, so membership mutations and the presence snapshots
// broadcast right after them observe consistent state.
type Registry struct {
	users []User
}

// NewRegistry creates an empty Registry. Each server process owns exactly
// one, but independent instances can be created freely for testing.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add constructs and inserts a user for the given connection. It returns
// ErrDuplicateConn if the connection identifier is already present; the
// existing entry is left untouched.
func (r *Registry) Add(connID, username, room string) (User, error) {
	if _, ok := r.Get(connID); ok {
		return User{}, ErrDuplicateConn
	}

	user := User{ConnID: connID, Username: username, Room: room}
	r.users = append(r.users, user)
	return user, nil
}

// Remove deletes and returns the user for the given connection. The second
// return value is false when no user was registered, which is a valid race
// (disconnect before join), not an error.
func (r *Registry) Remove(connID string) (User, bool) {
	for i, user := range r.users {
		if user.ConnID == connID {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return user, true
		}
	}
	return User{}, false
}

// Get looks up the user for the given connection without mutation.
func (r *Registry) Get(connID string) (User, bool) {
	for _, user := range r.users {
		if user.ConnID == connID {
			return user, true
		}
	}
	return User{}, false
}

// UsersInRoom returns the users currently in the given room, in insertion
// order among the matches. Room names are opaque, case-sensitive strings.
func (r *Registry) UsersInRoom(room string) []User {
	var users []User
	for _, user := range r.users {
		if user.Room == room {
			users = append(users, user)
		}
	}
	return users
}

// Len reports the number of live users across all rooms.
func (r *Registry) Len() int {
	return len(r.users)
}
