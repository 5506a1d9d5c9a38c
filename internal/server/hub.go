// Package server coordinates client registration, room-scoped message
// fan-out, and connection cleanup for the HackChat relay via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hackchat/relay/internal/chat"
	"github.com/hackchat/relay/internal/logger"
)

// Hub manages all WebSocket client connections and delivers outbound events
// to them. It maintains client registration/unregistration, the index of
// room broadcast groups, and ensures thread-safe operations through mutex
// protection. Hub satisfies chat.Transport, so the event router issues all
// of its sends through it without knowing about WebSockets.
type Hub struct {
	clients    map[string]*Client            // connection ID -> client
	rooms      map[string]map[string]*Client // room -> connection ID -> client
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates and initializes a new Hub instance with all necessary
// channels and indexes. The returned Hub is ready to manage WebSocket
// connections once Run is started.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// GetRegisterChan returns the channel used for registering new clients to the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients from the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// Subscribe adds the connection to the room's broadcast group. Subscribing
// a connection the hub no longer tracks is a no-op; the registration may
// have been torn down by a racing disconnect.
func (h *Hub) Subscribe(connID, room string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		logger.Warnf("Subscribe for unknown connection %s to room %q ignored", connID, room)
		return
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[connID] = client
	client.room = room
}

// SendTo delivers an event to a single connection. Sends to connections the
// hub no longer tracks are dropped silently.
func (h *Hub) SendTo(connID string, ev chat.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("Error marshaling %s event for connection %s: %v", ev.Name, connID, err)
		return
	}

	h.mutex.RLock()
	client, ok := h.clients[connID]
	h.mutex.RUnlock()
	if !ok {
		return
	}

	if !h.safeSend(client, payload) {
		h.removeFailedClients([]*Client{client})
	}
}

// BroadcastRoom delivers an event to every connection subscribed to the
// room, except the connection named by exclude. Delivery failure to one
// recipient never prevents delivery to the others; clients whose send
// buffers are full are evicted after the broadcast completes.
func (h *Hub) BroadcastRoom(room string, ev chat.Event, exclude string) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("Error marshaling %s event for room %q: %v", ev.Name, room, err)
		return
	}

	clients := h.getRoomSnapshot(room)

	var clientsToRemove []*Client
	for _, client := range clients {
		if exclude != "" && client.id == exclude {
			continue
		}
		if !h.safeSend(client, payload) {
			clientsToRemove = append(clientsToRemove, client)
		}
	}

	h.removeFailedClients(clientsToRemove)
}

// getRoomSnapshot returns a thread-safe snapshot of the clients subscribed
// to a room, in no particular order.
func (h *Hub) getRoomSnapshot(room string) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	members := h.rooms[room]
	clients := make([]*Client, 0, len(members))
	for _, client := range members {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) safeSend(client *Client, payload []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Recovered from panic in safeSend: %v", r)
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	// Check if client is still registered and not closed
	_, exists := h.clients[client.id]
	if !exists || client.closed {
		return false
	}

	// Try to send the message (channel might be closed, so we need to recover from panic)
	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling client registration and
// unregistration. This method should be called in a separate goroutine as
// it runs indefinitely. Unregistration is where the disconnect event is
// handed to the router, exactly once per connection.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				logger.Warn("Received nil client registration; skipping")
				continue
			}

			h.mutex.Lock()
			client.closed = false
			h.clients[client.id] = client
			clientCount := len(h.clients)
			h.mutex.Unlock()
			logger.Infof("Client %s registered from %s. Total clients: %d", client.id, client.addr, clientCount)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			if h.removeClient(client) {
				// Close the channel after releasing the lock
				close(client.send)
			}
			// The disconnect runs even when eviction already removed the
			// client: its read pump may have dispatched one more join
			// between the eviction and the connection teardown, and this
			// is the last point that can reap such an entry. The handler
			// is idempotent, so the common double delivery is harmless.
			client.router.HandleDisconnect(client.id)
		}
	}
}

// removeClient drops the client from the client map and its room group. It
// reports whether the client was still registered, so unregistration side
// effects run at most once.
func (h *Hub) removeClient(client *Client) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client.id]; !ok {
		return false
	}

	delete(h.clients, client.id)
	h.dropSubscriptionLocked(client)
	client.closed = true
	logger.Infof("Client %s unregistered from %s. Total clients: %d", client.id, client.addr, len(h.clients))
	return true
}

func (h *Hub) dropSubscriptionLocked(client *Client) {
	if client.room == "" {
		return
	}
	if members, ok := h.rooms[client.room]; ok {
		delete(members, client.id)
		if len(members) == 0 {
			delete(h.rooms, client.room)
		}
	}
	client.room = ""
}

// removeFailedClients removes clients that failed to receive messages and
// closes their channels. Each evicted client is reported to the router as a
// disconnect so room membership stays consistent with live connections.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	var removed []*Client
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client.id]; exists {
			delete(h.clients, client.id)
			h.dropSubscriptionLocked(client)
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			removed = append(removed, client)
			logger.Warnf("Client %s from %s removed due to full send buffer", client.id, client.addr)
		}
	}
	h.mutex.Unlock()

	// Close channels after releasing the lock
	for _, ch := range channelsToClose {
		close(ch)
	}
	for _, client := range removed {
		// Closing the connection ends the read pump, which would otherwise
		// keep dispatching frames for a connection the hub no longer tracks.
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				logger.Errorf("Error closing evicted connection from %s: %v", client.addr, err)
			}
		}
		// Eviction can happen mid-broadcast, while the router holds its own
		// lock. The disconnect must therefore be handed over asynchronously.
		go client.router.HandleDisconnect(client.id)
	}
}

// shutdownClients gracefully closes all active client connections.
func (h *Hub) shutdownClients() {
	logger.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	// Close all client connections
	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					logger.Errorf("Error closing client connection from %s: %v", client.addr, err)
				}
			}
		}
	}

	logger.Infof("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	logger.Info("Initiating hub shutdown...")

	// Signal shutdown
	h.cancel()

	// Wait for Run() to complete
	<-h.done

	// Wait for all client goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		logger.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
