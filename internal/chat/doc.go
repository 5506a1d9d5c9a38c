// Package chat implements the connection/room registry and message fan-out
// core of the HackChat relay.
//
// The package is organized into specialized files for the user registry, the
// event router, message formatting, and the transport contract so the core
// stays independent of WebSocket and HTTP concerns. The transport delivers
// inbound events to the Router; the Router mutates the Registry and issues
// outbound sends back through the Transport interface.
package chat
