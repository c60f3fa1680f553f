package websocket

import (
	"fmt"
	"sync"

	"github.com/moodlabs/moodchat/utils/log"
)

// Hub tracks the set of connected clients and routes frames to them
// by user.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.WithCtx(client.ctx).Debug("New client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
			}
			h.mu.Unlock()
			if ok {
				client.Close()
				log.WithCtx(client.ctx).Debug("Client unregistered")
			}
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends a frame to all connected clients
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.IsClosed() {
			client.SendMessage(message)
		}
	}
}

// SendToUser sends a frame to every open connection of a user.
func (h *Hub) SendToUser(userID int, message []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.clients {
		if client.userID == userID && !client.IsClosed() {
			if err := client.SendMessage(message); err == nil {
				sent++
			}
		}
	}
	if sent == 0 {
		return fmt.Errorf("no open connection for user %d", userID)
	}
	return nil
}

// IsUserConnected checks whether a user has at least one open connection.
func (h *Hub) IsUserConnected(userID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.userID == userID && !client.IsClosed() {
			return true
		}
	}
	return false
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
