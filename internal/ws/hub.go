package ws

import (
	"context"
	"sync"

	"sidecrew/internal/pkg/logger"
)

type delivery struct {
	topic   string
	payload []byte
}

// Hub routes messages to connected clients by topic. A client subscribes to
// exactly one topic, its actor's ("agent:<id>" and so on), and may hold
// several connections.
type Hub struct {
	topics     map[string]map[*Client]struct{}
	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]struct{}),
		deliver:    make(chan delivery, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		log:        logger.OrNop(log).With("component", "ws"),
	}
}

// Run owns the subscription table until ctx is done, then drops every
// client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for topic, set := range h.topics {
				for c := range set {
					close(c.send)
				}
				delete(h.topics, topic)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			set, ok := h.topics[client.topic]
			if !ok {
				set = make(map[*Client]struct{})
				h.topics[client.topic] = set
			}
			set[client] = struct{}{}
			h.mutex.Unlock()
			h.log.Debug("ws connected", "topic", client.topic, "total_clients", h.ClientCount())

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.remove(client)
			h.log.Debug("ws disconnected", "topic", client.topic, "total_clients", h.ClientCount())

		case d := <-h.deliver:
			h.mutex.RLock()
			targets := make([]*Client, 0, len(h.topics[d.topic]))
			for c := range h.topics[d.topic] {
				targets = append(targets, c)
			}
			h.mutex.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- d.payload:
				default:
					// Slow consumer; drop it rather than block the hub.
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	set, ok := h.topics[c.topic]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.topics, c.topic)
	}
}

func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	h.unregister <- client
}

func (h *Hub) send(topic string, payload []byte) {
	select {
	case h.deliver <- delivery{topic: topic, payload: payload}:
	default:
		h.log.Warn("ws delivery dropped", "topic", topic, "reason", "buffer_full")
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	n := 0
	for _, set := range h.topics {
		n += len(set)
	}
	return n
}
