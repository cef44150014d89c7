package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tobilg/widget-studio/internal/logger"
)

// Hub maintains the set of active viewers and pushes messages to them.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client, 64),
	}
}

// Run processes registrations and broadcasts until ctx is done. Remaining
// clients are closed on exit.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			logger.Debug("Viewer connected", "dashboard_id", client.DashboardID(), "total_clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mu.Unlock()
			logger.Debug("Viewer disconnected", "total_clients", count)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) deliver(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Error marshaling WebSocket message", "error", err)
		return
	}

	h.mu.RLock()
	var toDisconnect []*Client
	for client := range h.clients {
		if !client.wants(message.DashboardID) {
			continue
		}
		select {
		case client.send <- data:
		default:
			toDisconnect = append(toDisconnect, client)
		}
	}
	h.mu.RUnlock()

	// Slow clients are dropped; they reload state on reconnect.
	for _, c := range toDisconnect {
		select {
		case h.unregister <- c:
		default:
			logger.Warn("Unregister channel full, skipping client disconnect")
		}
	}
}

// Broadcast queues a message for delivery. It never blocks; when the queue
// is full the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		logger.Warn("Broadcast channel full, dropping message", "message_type", msg.Type)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
