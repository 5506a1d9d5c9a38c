// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in chat page.
package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hackchat/relay/internal/chat"
	"github.com/hackchat/relay/internal/logger"
)

// NewWebSocketHandler returns the handler for WebSocket upgrade requests.
// It validates that the request uses the GET method, upgrades the HTTP
// connection to WebSocket, assigns the connection its identifier, creates a
// Client, and registers it with the hub, which launches the read/write
// pumps.
func NewWebSocketHandler(hub *Hub, router *chat.Router, cfg Config) http.HandlerFunc {
	checker := newOriginChecker(cfg.AllowedOrigins)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checker.check,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(uuid.NewString(), conn, hub, router, r.RemoteAddr, cfg)

		// Register the client with the hub; the hub will launch the pump goroutines.
		hub.register <- client
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the relay is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "HackChat relay is running!")
}
