// Package server exposes the JSON endpoints for the room-name directory.
// The directory is a listing surface only: joining a room never requires
// a directory entry for that room's name.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hackchat/relay/internal/logger"
	"github.com/hackchat/relay/internal/roomdir"
)

// RoomHandlers bundles the HTTP handlers backed by a room directory.
type RoomHandlers struct {
	directory roomdir.Directory
}

// NewRoomHandlers creates handlers over the given directory.
func NewRoomHandlers(directory roomdir.Directory) *RoomHandlers {
	return &RoomHandlers{directory: directory}
}

// List responds with every room in the directory.
func (h *RoomHandlers) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.directory.List(r.Context())
	if err != nil {
		logger.Errorf("Error listing rooms: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// Create adds a room named by the request body and responds with it.
func (h *RoomHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid or missing room name")
		return
	}

	room, err := h.directory.Create(r.Context(), body.Name)
	if err != nil {
		logger.Errorf("Error creating room %q: %v", body.Name, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// DeleteOne removes the room identified by the path.
func (h *RoomHandlers) DeleteOne(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.directory.DeleteOne(r.Context(), id); err != nil {
		if errors.Is(err, roomdir.ErrRoomNotFound) {
			writeJSONError(w, http.StatusNotFound, "room not found")
			return
		}
		logger.Errorf("Error deleting room %s: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to delete room")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll removes every room from the directory.
func (h *RoomHandlers) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.DeleteAll(r.Context()); err != nil {
		logger.Errorf("Error deleting all rooms: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to delete rooms")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("Error writing JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
