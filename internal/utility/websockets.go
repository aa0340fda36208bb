package utility

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Hub of active chat sockets: Map[ConnectionID] -> Connection
var (
	Clients   = make(map[string]*websocket.Conn)
	ClientsMu sync.Mutex // Mutex to prevent race conditions
	Upgrader  = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Mobile and web clients connect from arbitrary origins
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

// RegisterClient tracks a new chat socket.
func RegisterClient(connID string, conn *websocket.Conn) {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	Clients[connID] = conn
	log.Info().Str("conn_id", connID).Msg("WebSocket Client Connected")
}

// UnregisterClient forgets a socket once its read loop ends.
func UnregisterClient(connID string) {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	if _, ok := Clients[connID]; ok {
		delete(Clients, connID)
		log.Info().Str("conn_id", connID).Msg("WebSocket Client Disconnected")
	}
}

// ActiveClients is the number of open chat sockets.
func ActiveClients() int {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	return len(Clients)
}

// CloseAllClients sends a going-away frame to every socket and closes it.
// http.Server.Shutdown does not touch hijacked connections, so this runs on shutdown.
func CloseAllClients() {
	ClientsMu.Lock()
	defer ClientsMu.Unlock()
	for id, conn := range Clients {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
		delete(Clients, id)
	}
}
