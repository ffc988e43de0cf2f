package fanout

import (
	"context"
	"sync"

	"github.com/stationprofiles/station-sync/common/logger"
)

// Hub maintains active WebSocket connections and broadcasts change events
type Hub struct {
	clients map[*Client]struct{}
	mutex   sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}

	log *logger.Logger
}

// Message is one change event routed by station id
type Message struct {
	StationID string
	Data      []byte
}

// NewHub creates a new Hub instance
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the hub's main loop. Every open client is closed when ctx ends.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("change hub started")

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			h.log.Info("change hub stopped")
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = struct{}{}
			h.mutex.Unlock()
			h.log.Debug("watcher registered", "station_filter", client.stationID, "total", h.Count())

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// join registers client; it reports false once the hub has stopped
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues a message for delivery; it drops the message if the hub is saturated
func (h *Hub) Publish(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("change hub saturated, dropping event", "station_id", message.StationID)
	}
}

// deliver sends a message to every client watching all stations or this one
func (h *Hub) deliver(message *Message) {
	h.mutex.RLock()
	var slow []*Client
	for client := range h.clients {
		if !client.wants(message.StationID) {
			continue
		}
		select {
		case client.send <- message.Data:
		default:
			slow = append(slow, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range slow {
		h.log.Warn("watcher send buffer full, closing connection", "station_filter", client.stationID)
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// Count returns the number of active connections
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
