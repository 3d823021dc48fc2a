// Package server exposes HTTP handlers: the WebSocket upgrade, health checks,
// and a read-only room listing.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomrelay/internal/logging"
)

// WebSocketHandler handles WebSocket upgrade requests. It validates that the
// request uses the GET method, upgrades the HTTP connection, creates a Client
// and registers it with the hub, which starts the client's pumps.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	log := logging.FromContext(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", logging.Err(err))
		return
	}

	client := NewClient(s.baseCtx, conn, s.hub, s.relay, r.RemoteAddr, s.cfg.MaxMessageSize, s.cfg.SendBuffer)
	if err := s.hub.Register(client); err != nil {
		log.Warn("rejecting connection", logging.Err(err))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
	}
}

// RootHandler serves WebSocket upgrades on the bare path, which is where the
// browser client dials, and the plain-text health check otherwise.
func (s *Server) RootHandler(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.WebSocketHandler(w, r)
		return
	}
	HealthHandler(w, r)
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Room relay is running!")
}

type statusResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

// StatusHandler reports liveness with room and connection totals as JSON.
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, statusResponse{
		Status:      "ok",
		Rooms:       s.registry.RoomCount(),
		Connections: s.hub.ClientCount(),
	})
}

// RoomsHandler lists every room with its live member count.
func (s *Server) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.registry.Rooms())
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Warn("error writing JSON response", logging.Err(err))
	}
}
