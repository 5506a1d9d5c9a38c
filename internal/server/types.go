// Package server defines shared frame types and utility helpers that are
// reused across client and hub logic.
package server

import (
	"encoding/json"
	"strings"
)

// inboundFrame is the envelope of an event arriving from a client. The data
// is kept raw so each event name can decode its own payload shape.
type inboundFrame struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
