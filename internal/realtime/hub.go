package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/yourorg/drukstay/internal/domain"
)

// Client is a connected map session. Events are delivered on Send; slow
// clients get messages dropped rather than blocking the publisher.
type Client struct {
	ID   string
	Send chan domain.PropertyEvent
}

// Hub fans property events out to live map sessions
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *slog.Logger
}

// New creates an empty hub
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register creates and attaches a new client
func (h *Hub) Register() *Client {
	client := &Client{
		ID:   uuid.NewString(),
		Send: make(chan domain.PropertyEvent, 16),
	}
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
	return client
}

// Unregister detaches a client and closes its channel
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

// Publish implements domain.EventPublisher
func (h *Hub) Publish(event domain.PropertyEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- event:
		default:
			h.logger.Warn("dropping event for slow map session",
				slog.String("client_id", client.ID),
				slog.String("event", event.Type),
			)
		}
	}
}

// ClientCount returns the number of attached sessions
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
