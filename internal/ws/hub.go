package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Message is the envelope for every event pushed to clients.
type Message struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub tracks the live websocket connections per user and fans events out to
// them. A user may hold any number of connections at once; an event for a
// user goes to all of them. Delivery is best effort: a client whose send
// buffer is full gets dropped rather than blocking the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool
	log     *logrus.Logger
}

// NewHub creates a new Hub.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]bool),
		log:     log,
	}
}

// Register adds a client to the registry. Registering the same client twice
// is a no-op.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true

	h.log.WithFields(logrus.Fields{
		"user_id":     client.UserID,
		"connections": len(h.clients[client.UserID]),
	}).Info("websocket client registered")
}

// Unregister removes a client and closes its send channel. Unregistering a
// client that is already gone is a no-op, so the channel closes exactly once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked must be called with the write lock held.
func (h *Hub) removeLocked(client *Client) {
	conns, ok := h.clients[client.UserID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.send)

	h.log.WithField("user_id", client.UserID).Info("websocket client unregistered")
}

// NotifyUser sends an event to every connection the user currently holds.
// Unknown users are a silent no-op.
func (h *Hub) NotifyUser(userID, event string, data interface{}) {
	payload, err := json.Marshal(Message{
		Type:      event,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
	if err != nil {
		h.log.WithError(err).Error("marshal websocket event")
		return
	}
	h.sendToUser(userID, payload)
}

// BroadcastAll sends an event to every connected client.
func (h *Hub) BroadcastAll(event string, data interface{}) {
	payload, err := json.Marshal(Message{
		Type:      event,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
	if err != nil {
		h.log.WithError(err).Error("marshal websocket event")
		return
	}
	h.BroadcastFrame(payload)
}

// BroadcastFrame sends a raw frame to every connected client as-is.
func (h *Hub) BroadcastFrame(payload []byte) {
	h.mu.RLock()
	var dead []*Client
	for _, conns := range h.clients {
		for client := range conns {
			if !client.trySend(payload) {
				dead = append(dead, client)
			}
		}
	}
	h.mu.RUnlock()

	h.reap(dead)
}

// ConnectionCount returns the number of open connections for a user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	h.mu.RLock()
	var dead []*Client
	for client := range h.clients[userID] {
		if !client.trySend(payload) {
			dead = append(dead, client)
		}
	}
	h.mu.RUnlock()

	h.reap(dead)
}

// reap drops clients that could not keep up. Closing the send channel only
// happens under the write lock, never during a read-locked send.
func (h *Hub) reap(dead []*Client) {
	if len(dead) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range dead {
		h.removeLocked(client)
	}
}
