// Package sse broadcasts server-sent events to the browsers watching an agent
// page.
package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"github.com/valyala/fasthttp"
)

type (
	// Listener defines the interface for the receiving end.
	Listener interface {
		ID() string
		Chan() chan Envelope
	}

	// Envelope defines the interface for content that can be broadcast to clients.
	Envelope interface {
		String() string
	}

	// Manager defines the interface for managing clients and broadcasting messages.
	Manager interface {
		Send(message Envelope)
		Handle(ctx *fiber.Ctx, cl Listener)
		Subscribe(cl Listener)
		Unsubscribe(id string)
		Clients() []string
		Close()
	}
)

type Client struct {
	id string
	ch chan Envelope
}

// NewClient returns a listener with a random id.
func NewClient() Listener {
	return &Client{
		id: uuid.NewString(),
		ch: make(chan Envelope, 50),
	}
}

func (c *Client) ID() string          { return c.id }
func (c *Client) Chan() chan Envelope { return c.ch }

// Message represents a simple message implementation.
type Message struct {
	Event string
	Time  time.Time
	Data  string
}

func NewMessage(data string) *Message {
	return &Message{
		Data: data,
		Time: time.Now(),
	}
}

// NewJSONMessage encodes v as the message data.
func NewJSONMessage(event string, v any) (*Message, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := NewMessage(string(b))
	m.Event = event
	return m, nil
}

func (m *Message) String() string {
	sb := strings.Builder{}

	if m.Event != "" {
		sb.WriteString(fmt.Sprintf("event: %s\n", m.Event))
	}
	sb.WriteString(fmt.Sprintf("data: %v\n\n", m.Data))

	return sb.String()
}

func (m *Message) WithEvent(event string) Envelope {
	m.Event = event
	return m
}

// Hooks are called with the number of clients after a client joins or leaves.
type Hooks struct {
	OnJoin  func(clients int)
	OnLeave func(clients int)
}

type broadcastManager struct {
	mu      sync.Mutex
	clients map[string]Listener
	last    Envelope
	hooks   Hooks
	closed  bool
}

// NewManager returns a manager that replays the latest message to every new
// client.
func NewManager(hooks Hooks) Manager {
	return &broadcastManager{
		clients: map[string]Listener{},
		hooks:   hooks,
	}
}

// Send delivers a message to every client. A client whose buffer is full
// misses it.
func (manager *broadcastManager) Send(message Envelope) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if manager.closed {
		return
	}
	manager.last = message
	for id, client := range manager.clients {
		select {
		case client.Chan() <- message:
		default:
			xlog.Debug("SSE client buffer full, dropping message", "client", id)
		}
	}
}

func (manager *broadcastManager) Subscribe(cl Listener) {
	manager.mu.Lock()
	if manager.closed {
		manager.mu.Unlock()
		close(cl.Chan())
		return
	}
	manager.clients[cl.ID()] = cl
	if manager.last != nil {
		select {
		case cl.Chan() <- manager.last:
		default:
		}
	}
	n := len(manager.clients)
	manager.mu.Unlock()

	if manager.hooks.OnJoin != nil {
		manager.hooks.OnJoin(n)
	}
}

func (manager *broadcastManager) Unsubscribe(id string) {
	manager.mu.Lock()
	cl, ok := manager.clients[id]
	if !ok {
		manager.mu.Unlock()
		return
	}
	delete(manager.clients, id)
	close(cl.Chan())
	n := len(manager.clients)
	manager.mu.Unlock()

	if manager.hooks.OnLeave != nil {
		manager.hooks.OnLeave(n)
	}
}

// Handle sets up a new client and streams to it until it disconnects.
func (manager *broadcastManager) Handle(c *fiber.Ctx, cl Listener) {
	ctx := c.Context()

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Cache-Control")
	ctx.Response.Header.Set("Access-Control-Allow-Credentials", "true")
	ctx.Response.Header.Set("X-Accel-Buffering", "no") // Disable proxy buffering

	manager.Subscribe(cl)

	ctx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer manager.Unsubscribe(cl.ID())
		Stream(w, cl, HeartbeatInterval)
	}))
}

// HeartbeatInterval spaces the comment lines sent to idle clients.
var HeartbeatInterval = 15 * time.Second

// Stream writes the listener's messages to w until the channel closes or a
// write fails. A ping comment is written every heartbeat.
func Stream(w *bufio.Writer, cl Listener, heartbeat time.Duration) {
	if !flush(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n") {
		return
	}

	ping := time.NewTicker(heartbeat)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-cl.Chan():
			if !ok {
				return
			}
			if !flush(w, msg.String()) {
				return
			}
		case <-ping.C:
			if !flush(w, ": ping\n\n") {
				return
			}
		}
	}
}

func flush(w *bufio.Writer, s string) bool {
	if _, err := w.WriteString(s); err != nil {
		return false
	}
	return w.Flush() == nil
}

func (manager *broadcastManager) Clients() []string {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	clients := make([]string, 0, len(manager.clients))
	for id := range manager.clients {
		clients = append(clients, id)
	}
	return clients
}

// Close disconnects every client. Later subscriptions are closed immediately.
func (manager *broadcastManager) Close() {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if manager.closed {
		return
	}
	manager.closed = true
	for id, cl := range manager.clients {
		close(cl.Chan())
		delete(manager.clients, id)
	}
}
