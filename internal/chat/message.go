// Package chat defines the wire payloads exchanged with clients and the
// formatting helper that stamps them.
package chat

import "time"

// BotName is the fixed sender name used for system-generated notifications
// such as welcome, join, and leave announcements.
const BotName = "Admin"

// WelcomeText is the greeting sent privately to every user when they join.
const WelcomeText = "Welcome to HackChat"

// timestampLayout renders a human-readable time of day (hours:minutes).
const timestampLayout = "15:04"

// Message is a single chat or system notification delivered to clients. It
// is transient: produced per event, sent immediately, retained nowhere.
type Message struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// RoomUsers is the presence update broadcast to a room on every membership
// change. Users are listed in registry insertion order.
type RoomUsers struct {
	Room  string `json:"room"`
	Users []User `json:"users"`
}

// FormatMessage builds a Message from a sender and text, attaching the
// time-of-day stamp for the given instant. It is a pure function used
// identically for bot-originated and user-originated messages.
func FormatMessage(sender, text string, at time.Time) Message {
	return Message{
		Sender:    sender,
		Text:      text,
		Timestamp: at.Format(timestampLayout),
	}
}
