package hub

import (
	"sync"

	"github.com/chattyapp/chatty-server/internal/config"
	"github.com/chattyapp/chatty-server/pkg/log"
)

// Publisher is the egress side of the live-channel broker. Publishing to a
// destination nobody is subscribed to is a silent no-op: delivery is
// at-most-once to currently connected sessions, history is recovered via
// the page-fetch path.
type Publisher interface {
	Publish(destination string, payload []byte)
}

// Hub relays payloads to websocket clients by hierarchical destination
// name. Clients subscribe to destinations; publishes fan out to every
// subscriber of that destination.
type Hub struct {
	clients       map[string]*Client            // sessionID -> client
	subscriptions map[string]map[string]*Client // destination -> sessionID -> client
	register      chan *Client
	unregister    chan *Client
	broadcast     chan *destinationMessage
	mu            sync.RWMutex
	config        config.WebSocketConfig
}

type destinationMessage struct {
	Destination string
	Payload     []byte
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		subscriptions: make(map[string]map[string]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan *destinationMessage, 256),
		config:        cfg,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldSessionID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for dest, subs := range h.subscriptions {
					delete(subs, client.ID)
					if len(subs) == 0 {
						delete(h.subscriptions, dest)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldSessionID, client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			if subs, ok := h.subscriptions[msg.Destination]; ok {
				for _, client := range subs {
					select {
					case client.Send <- msg.Payload:
					default:
						go h.removeClient(client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe adds the client to a destination's subscriber set.
func (h *Hub) Subscribe(client *Client, destination string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscriptions[destination]; !ok {
		h.subscriptions[destination] = make(map[string]*Client)
	}
	h.subscriptions[destination][client.ID] = client
	l := log.L()
	l.Debug().
		Str(log.FieldSessionID, client.ID).
		Str(log.FieldDestination, destination).
		Msg("client subscribed")
}

// Unsubscribe removes the client from a destination's subscriber set.
func (h *Hub) Unsubscribe(client *Client, destination string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subscriptions[destination]; ok {
		delete(subs, client.ID)
		if len(subs) == 0 {
			delete(h.subscriptions, destination)
		}
	}
}

// Publish delivers the payload to every subscriber of the destination.
func (h *Hub) Publish(destination string, payload []byte) {
	h.broadcast <- &destinationMessage{
		Destination: destination,
		Payload:     payload,
	}
}

// SubscriberCount returns the number of sessions subscribed to a destination.
func (h *Hub) SubscriberCount(destination string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[destination])
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
