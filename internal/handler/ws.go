package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/devaloi/quoteboard/internal/client"
	"github.com/devaloi/quoteboard/internal/hub"
	"github.com/devaloi/quoteboard/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS handles WebSocket upgrade requests. The "user" query parameter
// becomes the author part of the client's "room/user" sender identity.
func ServeWS(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.URL.Query().Get("user")
		if user == "" {
			writeError(w, http.StatusBadRequest, "user query param required")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.L().Warn().Err(err).Str("user", user).Msg("ws upgrade")
			return
		}

		c := client.New(h, conn, user)
		go c.ReadPump()
		go c.WritePump()
	}
}
