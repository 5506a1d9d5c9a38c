// Package server implements the HTTP and WebSocket transport for the
// HackChat relay.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, routing, and HTTP handlers to keep the codebase
// maintainable and testable as the project grows. The hub satisfies the
// chat.Transport interface, so all chat semantics live in the chat package
// and this package stays limited to connection plumbing.
package server
