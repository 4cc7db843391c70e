// Package realtime is the topic registry behind the websocket fanout.
//
// A client is subscribed to its user and role topics when it registers and
// may join incident topics afterwards. Emission is serialized, so events on
// the same topic reach each subscriber in publish order. Delivery is
// at-most-once: a client whose send buffer is full is disconnected.
package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/readyresponse/dispatch/internal/rbac"
)

func UserTopic(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func RoleTopic(role string) string {
	return "role:" + role
}

func IncidentTopic(id uint) string {
	return fmt.Sprintf("incident:%d", id)
}

// Event is the wire frame in both directions.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Publisher is the emitting side of the hub used by the services.
type Publisher interface {
	Publish(topic, event string, payload any)
	Broadcast(event string, payload any)
}

type Client struct {
	ID     string
	UserID uint
	Role   string

	send   chan []byte
	topics map[string]struct{}
	closed bool
}

// Send is the outbound frame stream. It is closed when the hub drops the client.
func (c *Client) Send() <-chan []byte {
	return c.send
}

type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	emitMu     sync.Mutex
	sendBuffer int
	policy     *rbac.Policy
}

func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Hub{
		topics:     make(map[string]map[*Client]struct{}),
		clients:    make(map[*Client]struct{}),
		sendBuffer: sendBuffer,
		policy:     rbac.MustPolicy(),
	}
}

// UsePolicy replaces the policy consulted for client-originated writes.
func (h *Hub) UsePolicy(p *rbac.Policy) {
	if p != nil {
		h.policy = p
	}
}

func (h *Hub) NewClient(userID uint, role string) *Client {
	id, err := uuid.NewV4()
	clientID := id.String()
	if err != nil {
		clientID = fmt.Sprintf("user-%d", userID)
	}

	return &Client{
		ID:     clientID,
		UserID: userID,
		Role:   role,
		send:   make(chan []byte, h.sendBuffer),
		topics: make(map[string]struct{}),
	}
}

// Register adds the client and subscribes it to its identity topics.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	h.joinLocked(c, UserTopic(c.UserID))
	if c.Role != "" {
		h.joinLocked(c, RoleTopic(c.Role))
	}
}

// Unregister removes the client from every topic and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.unregisterLocked(c)
}

func (h *Hub) unregisterLocked(c *Client) {
	if c.closed {
		return
	}

	for topic := range c.topics {
		h.leaveLocked(c, topic)
	}
	delete(h.clients, c)
	c.closed = true
	close(c.send)
}

func (h *Hub) Join(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return
	}
	h.joinLocked(c, topic)
}

func (h *Hub) Leave(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(c, topic)
}

func (h *Hub) joinLocked(c *Client, topic string) {
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Client]struct{})
		h.topics[topic] = subs
	}
	subs[c] = struct{}{}
	c.topics[topic] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, topic string) {
	if subs, ok := h.topics[topic]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(c.topics, topic)
}

func (h *Hub) TopicSize(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.topics[topic])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: event, Data: data})
}

// Publish sends an event to every subscriber of topic.
func (h *Hub) Publish(topic, event string, payload any) {
	frame, err := encode(event, payload)
	if err != nil {
		log.Printf("realtime: encode %s for %s: %v", event, topic, err)
		return
	}

	h.emitMu.Lock()
	defer h.emitMu.Unlock()

	h.mu.RLock()
	subs := make([]*Client, 0, len(h.topics[topic]))
	for c := range h.topics[topic] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	h.deliver(subs, frame, event)
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(event string, payload any) {
	frame, err := encode(event, payload)
	if err != nil {
		log.Printf("realtime: encode %s: %v", event, err)
		return
	}

	h.emitMu.Lock()
	defer h.emitMu.Unlock()

	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	h.deliver(all, frame, event)
}

func (h *Hub) deliver(clients []*Client, frame []byte, event string) {
	var slow []*Client

	h.mu.RLock()
	for _, c := range clients {
		if c.closed {
			continue
		}
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}

	h.mu.Lock()
	for _, c := range slow {
		log.Printf("realtime: dropping client %s (user %d), send buffer full on %s", c.ID, c.UserID, event)
		h.unregisterLocked(c)
	}
	h.mu.Unlock()
}

// SendTo writes a frame to a single client, used for replies such as
// "connected" and "error".
func (h *Hub) SendTo(c *Client, event string, payload any) {
	frame, err := encode(event, payload)
	if err != nil {
		log.Printf("realtime: encode %s: %v", event, err)
		return
	}

	h.emitMu.Lock()
	defer h.emitMu.Unlock()

	h.deliver([]*Client{c}, frame, event)
}
