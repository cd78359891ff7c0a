package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"dictation-turn-service/internal/observability/logging"
	"dictation-turn-service/internal/observability/metrics"
)

// Hub fans turn events out to connected websocket clients. Slow or dead
// clients are dropped rather than allowed to stall the broadcast.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan any
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	log        zerolog.Logger
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan any, 100),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		log:        logging.WithComponent("live-feed"),
	}
}

// Run services the hub until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.DefaultMetrics.RecordWebsocketConnected()
			h.log.Debug().Int("total", total).Msg("live-feed client connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				metrics.DefaultMetrics.RecordWebsocketDisconnected()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug().Int("total", total).Msg("live-feed client disconnected")

		case event := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(event); err != nil {
					h.log.Debug().Err(err).Msg("dropping live-feed client")
					conn.Close()
					delete(h.clients, conn)
					metrics.DefaultMetrics.RecordWebsocketDisconnected()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for all clients. Never blocks; the oldest
// waiting event is sacrificed under pressure.
func (h *Hub) Broadcast(event any) {
	select {
	case h.broadcast <- event:
	default:
		select {
		case <-h.broadcast:
		default:
		}
		select {
		case h.broadcast <- event:
		default:
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleLive upgrades the request and registers the client. Reads are
// drained only to detect disconnects.
func (h *Hub) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.register <- conn

	go func() {
		defer func() {
			h.unregister <- conn
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
