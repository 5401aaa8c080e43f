package server

import (
	"log"
	"sync"

	"github.com/example/go-chatapp/internal/chat"
	"github.com/example/go-chatapp/internal/stats"
)

// Hub tracks connected websocket clients and their topic subscriptions, and
// fans published payloads out to each topic's subscribers. It implements
// chat.Publisher for the broadcast router.
type Hub struct {
	log   *log.Logger
	stats stats.StatsProvider

	mu      sync.RWMutex
	clients map[*Client]struct{}
	topics  map[string]map[*Client]struct{}
}

func NewHub(logger *log.Logger, sp stats.StatsProvider) *Hub {
	sp.RegisterMetric(stats.ConnectedClients)

	return &Hub{
		log:     logger,
		stats:   sp,
		clients: make(map[*Client]struct{}),
		topics:  make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	h.stats.Incr(stats.ConnectedClients)
	h.log.Printf("adding connection %s for %q", c.sessionId, c.username)
}

// Unregister drops a client and all of its subscriptions.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	for topic, subs := range h.topics {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}

	h.stats.Decr(stats.ConnectedClients)
	h.log.Printf("removing connection %s for %q", c.sessionId, c.username)
}

func (h *Hub) Subscribe(c *Client, topic string) {
	if topic == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Client]struct{})
		h.topics[topic] = subs
	}
	subs[c] = struct{}{}
}

func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[topic]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Publish delivers a payload to every subscriber of the topic. Slow clients
// whose send queues are full miss the frame rather than block the caller.
func (h *Hub) Publish(topic string, payload any) {
	frame := &ServerFrame{
		Topic:     topic,
		Timestamp: chat.Now(),
		Payload:   payload,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.topics[topic] {
		c.queueFrame(frame)
	}
}

// Shutdown stops all connected clients.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.log.Println("shutting down hub")
	for c := range h.clients {
		c.stopClient()
	}
}
