package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/devaloi/quoteboard/internal/domain"
	"github.com/devaloi/quoteboard/internal/hub"
	"github.com/devaloi/quoteboard/internal/logging"
)

// QuoteLister returns a room's quotes in display order.
type QuoteLister interface {
	List(room string) ([]domain.Quote, error)
}

// maxCommandBody bounds a POST /api/command body. It matches the WebSocket
// frame limit.
const maxCommandBody = 16 * 1024

// UsageProvider returns help text for the chat commands.
type UsageProvider interface {
	Usage() string
}

// CommandRequest is the body of POST /api/command.
type CommandRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// CommandResponse is the reply to a handled command.
type CommandResponse struct {
	Reply string `json:"reply"`
}

// Health returns a simple health check handler.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ListRooms returns all active rooms with user counts.
func ListRooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.ListRooms())
	}
}

// RoomInfo returns details about a specific room.
func RoomInfo(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
		if name == "" {
			writeError(w, http.StatusBadRequest, "room name required")
			return
		}

		info := h.RoomInfo(name)
		if info == nil {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

// ListQuotes returns every quote stored for the room named in
// /api/quotes/{room}.
func ListQuotes(l QuoteLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := strings.TrimPrefix(r.URL.Path, "/api/quotes/")
		if room == "" || strings.Contains(room, "/") {
			writeError(w, http.StatusBadRequest, "room name required")
			return
		}

		quotes, err := l.List(room)
		if err != nil {
			logging.L().Error().Err(err).Str("room", room).Msg("list quotes")
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		writeJSON(w, http.StatusOK, quotes)
	}
}

// Command runs one chat command through p without a WebSocket session.
// Text that is not a command yields 204.
func Command(p hub.Plugin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req CommandRequest
		body := http.MaxBytesReader(w, r.Body, maxCommandBody)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if _, _, err := domain.ParseSender(req.Sender); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		reply, handled, err := p.Handle(req.Sender, req.Text)
		switch {
		case err != nil:
			writeError(w, http.StatusInternalServerError, "command failed")
		case !handled:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusOK, CommandResponse{Reply: reply})
		}
	}
}

// Usage returns the chat command help text.
func Usage(u UsageProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"usage": u.Usage()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
