package ws

import (
	"log/slog"
	"sync"

	"github.com/serroba/design-studio/internal/canvas"
)

// Hub tracks connected clients and which design each one watches.
type Hub struct {
	mu sync.RWMutex

	// clients maps client ID to client
	clients map[string]*Client

	// designs maps design ID to set of client IDs
	designs map[string]map[string]struct{}

	logger *slog.Logger
}

// NewHub creates a new Hub. A nil logger uses slog.Default.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		clients: make(map[string]*Client),
		designs: make(map[string]map[string]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
}

// Unregister removes a client from the hub and its design subscription.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leave(client, client.DesignID())
	delete(h.clients, client.ID)
}

// Subscribe moves a client onto a design's broadcast list.
func (h *Hub) Subscribe(client *Client, designID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old := client.DesignID(); old != designID {
		h.leave(client, old)
	}

	if h.designs[designID] == nil {
		h.designs[designID] = make(map[string]struct{})
	}

	h.designs[designID][client.ID] = struct{}{}
	client.SetDesignID(designID)
}

// Unsubscribe removes a client from a design's broadcast list.
func (h *Hub) Unsubscribe(client *Client, designID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leave(client, designID)

	if client.DesignID() == designID {
		client.SetDesignID("")
	}
}

// leave drops client from designID's set. Caller holds h.mu.
func (h *Hub) leave(client *Client, designID string) {
	if designID == "" {
		return
	}

	if clients, ok := h.designs[designID]; ok {
		delete(clients, client.ID)

		if len(clients) == 0 {
			delete(h.designs, designID)
		}
	}
}

// Broadcast sends msg to every client watching designID except
// excludeClientID. Sends happen in the caller's goroutine, so each client
// sees broadcasts in the order they were made. Failed sends are logged.
func (h *Hub) Broadcast(designID string, msg Message, excludeClientID string) {
	for _, c := range h.subscribers(designID, excludeClientID) {
		if err := c.Send(msg); err != nil {
			h.logger.Debug("broadcast send failed",
				"design_id", designID, "client_id", c.ID, "error", err)
		}
	}
}

func (h *Hub) subscribers(designID, excludeClientID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := h.designs[designID]
	out := make([]*Client, 0, len(ids))

	for id := range ids {
		if id == excludeClientID {
			continue
		}

		if c, ok := h.clients[id]; ok {
			out = append(out, c)
		}
	}

	return out
}

// BroadcastState pushes a full state to watchers of the design. Read-only
// clients get the payload flagged as such.
func (h *Hub) BroadcastState(state StatePayload, excludeClientID string) {
	for _, c := range h.subscribers(state.DesignID, excludeClientID) {
		p := state
		p.ReadOnly = c.ReadOnly

		if err := c.Send(Message{Type: MessageTypeState, Payload: p}); err != nil {
			h.logger.Debug("state send failed",
				"design_id", state.DesignID, "client_id", c.ID, "error", err)
		}
	}
}

// BroadcastElement pushes a live element update to watchers of the design.
func (h *Hub) BroadcastElement(designID string, el canvas.Element, excludeClientID string) {
	msg, err := NewElementMessage(designID, el)
	if err != nil {
		h.logger.Warn("encode element failed", "design_id", designID, "error", err)

		return
	}

	h.Broadcast(designID, msg, excludeClientID)
}

// ClientCount returns the number of clients subscribed to a design.
func (h *Hub) ClientCount(designID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.designs[designID])
}

// TotalClients returns the total number of connected clients.
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
