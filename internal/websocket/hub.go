package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/undangan/internal/timefmt"
)

const (
	TypeCountdown   = "countdown"
	TypeRSVPChanged = "rsvp_changed"
)

// Message is a JSON notification pushed to invitation pages.
type Message struct {
	Type      string             `json:"type"`
	Slug      string             `json:"slug,omitempty"`
	Remaining *timefmt.Remaining `json:"remaining,omitempty"`
	Done      bool               `json:"done,omitempty"`

	// Origin is the session that caused the change. Its own page already
	// holds the result and is skipped.
	Origin string `json:"-"`
}

// CountdownMessage reports the time left until the event starts.
func CountdownMessage(rem timefmt.Remaining) Message {
	return Message{Type: TypeCountdown, Remaining: &rem, Done: rem.Zero()}
}

// RSVPChanged tells other pages showing slug to reload their comment list.
func RSVPChanged(slug, origin string) Message {
	return Message{Type: TypeRSVPChanged, Slug: slug, Origin: origin}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends msg to every client viewing msg.Slug, except the client
// of msg.Origin. An empty slug reaches all clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if msg.Slug != "" && c.slug != msg.Slug {
			continue
		}
		if msg.Origin != "" && c.session == msg.Origin {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full; drop the message.
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
