package ws

import (
	"log/slog"
	"sync"

	"github.com/mcoot/noughts/internal/dependencies/clock"
	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/protocol"
)

// publishBufferSize is the capacity of the hub's outgoing queue
const publishBufferSize = 256

type delivery struct {
	audience model.Audience
	message  []byte
}

// Hub tracks live websocket clients and fans events out to them
type Hub struct {
	clients map[model.ConnectionID]*Client
	mu      sync.RWMutex
	clock   clock.Clock
	logger  *slog.Logger

	// Channels for managing clients
	register   chan *Client
	unregister chan *Client
	publish    chan delivery
	done       chan struct{}
	closeOnce  sync.Once
}

// Ensure Hub implements Publisher
var _ model.Publisher = (*Hub)(nil)

// NewHub creates a new Hub
func NewHub(clock clock.Clock, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[model.ConnectionID]*Client),
		clock:      clock,
		logger:     logger.With(slog.String("component", "ws")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan delivery, publishBufferSize),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("ws hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered",
				slog.String("connection_id", string(client.id)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.id]; ok && current == client {
				delete(h.clients, client.id)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("ws client unregistered",
					slog.String("connection_id", string(client.id)),
					slog.Duration("connection_duration", h.clock.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case d := <-h.publish:
			h.deliver(d)

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

func (h *Hub) deliver(d delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := d.audience.IDs
	if d.audience.All {
		targets = make([]model.ConnectionID, 0, len(h.clients))
		for id := range h.clients {
			targets = append(targets, id)
		}
	}

	dropped := 0
	for _, id := range targets {
		client, ok := h.clients[id]
		if !ok {
			continue
		}
		select {
		case client.send <- d.message:
		default:
			dropped++
			h.logger.Warn("ws message dropped - client buffer full",
				slog.String("connection_id", string(id)))
		}
	}
	if dropped > 0 {
		h.logger.Warn("ws publish partial failure",
			slog.Int("targets", len(targets)),
			slog.Int("dropped", dropped))
	}
}

// Register adds a client to the hub. It returns false once the hub is closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish encodes the event once and queues it for the audience. It never
// blocks; the event is dropped if the hub is saturated or closed.
func (h *Hub) Publish(audience model.Audience, event model.Event) {
	message, err := protocol.Encode(event)
	if err != nil {
		h.logger.Error("ws failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()))
		return
	}

	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.publish <- delivery{audience: audience, message: message}:
	default:
		h.logger.Warn("ws publish dropped - hub buffer full",
			slog.String("type", string(event.Type)))
	}
}

// Close shuts down the hub and disconnects every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
