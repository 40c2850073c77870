package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the API is consumed by same-host dashboards and local tools
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades the request and attaches the connection to hub
func Handler(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
			return
		}
		client := NewClient(hub, conn, logger)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
