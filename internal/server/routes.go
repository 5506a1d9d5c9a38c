// Package server wires HTTP handlers into a ServeMux for the HackChat
// relay via routing helpers.
package server

import (
	"net/http"

	"github.com/hackchat/relay/internal/chat"
	"github.com/hackchat/relay/internal/roomdir"
)

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes: health check, WebSocket endpoint, chat page, and the room
// directory endpoints.
func SetupRoutes(hub *Hub, router *chat.Router, directory roomdir.Directory, cfg Config) *http.ServeMux {
	rooms := NewRoomHandlers(directory)

	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", NewWebSocketHandler(hub, router, cfg))
	mux.HandleFunc("/chat", ChatPageHandler)
	mux.HandleFunc("GET /rooms", rooms.List)
	mux.HandleFunc("POST /rooms", rooms.Create)
	mux.HandleFunc("DELETE /rooms", rooms.DeleteAll)
	mux.HandleFunc("DELETE /rooms/{id}", rooms.DeleteOne)
	return mux
}
