package server

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/tessro/spindle/internal/session"
)

// Hub maintains the set of active WebSocket clients and broadcasts session
// events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan session.Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *log.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan session.Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main event loop. It must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("websocket client connected", "remote", client.remote, "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("websocket client disconnected", "remote", client.remote, "clients", len(h.clients))
			}

		case event := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Broadcast queues an event for every client. Events are dropped when the
// hub is backed up.
func (h *Hub) Broadcast(event session.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("websocket broadcast channel full, dropping event", "type", event.Type)
	}
}

// RegisterClient registers a new client with the hub.
func (h *Hub) RegisterClient(ctx context.Context, client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// UnregisterClient unregisters a client from the hub. It returns without
// waiting once the hub has stopped.
func (h *Hub) UnregisterClient(ctx context.Context, client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	case <-ctx.Done():
	}
}
