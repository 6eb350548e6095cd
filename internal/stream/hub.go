// Package stream pushes bus events and toasts to dashboard clients over
// WebSocket.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/types"
)

const sendBuffer = 256

// Message kinds.
const (
	KindEvent = "event"
	KindToast = "toast"
)

// Message is the JSON frame sent to clients.
type Message struct {
	Kind  string       `json:"kind"`
	Event *types.Event `json:"event,omitempty"`
	Toast *types.Toast `json:"toast,omitempty"`
}

// Connection is one WebSocket client. An empty filter receives every event
// type; toasts are always delivered.
type Connection struct {
	ID     string
	Conn   *websocket.Conn
	Send   chan []byte
	filter []string
	mu     sync.Mutex
}

func (c *Connection) wants(m *Message) bool {
	if m.Kind != KindEvent || len(c.filter) == 0 {
		return true
	}
	return slices.Contains(c.filter, m.Event.Type)
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

func (c *Connection) Close() error {
	return c.Conn.Close()
}

type outbound struct {
	msg  *Message
	data []byte
}

// Hub tracks connections and fans messages out to them. Run must be
// running for registration and delivery to happen.
type Hub struct {
	connections map[string]*Connection

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan outbound
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan outbound, sendBuffer),
		done:        make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is done, closing every
// connection's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			h.mu.Unlock()
			slog.Debug("stream client connected", "conn_id", conn.ID)

		case conn := <-h.unregister:
			h.remove(conn)

		case out := <-h.broadcast:
			h.mu.RLock()
			var slow []*Connection
			for _, conn := range h.connections {
				if !conn.wants(out.msg) {
					continue
				}
				select {
				case conn.Send <- out.data:
				default:
					slow = append(slow, conn)
				}
			}
			h.mu.RUnlock()
			for _, conn := range slow {
				slog.Warn("stream client buffer full, closing", "conn_id", conn.ID)
				h.remove(conn)
			}

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, conn := range h.connections {
				close(conn.Send)
				delete(h.connections, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn.ID]; ok {
		delete(h.connections, conn.ID)
		close(conn.Send)
		slog.Debug("stream client disconnected", "conn_id", conn.ID)
	}
}

// NewConnection wraps ws; filter limits the event types it receives.
func (h *Hub) NewConnection(ws *websocket.Conn, filter []string) *Connection {
	return &Connection{
		ID:     uuid.New().String(),
		Conn:   ws,
		Send:   make(chan []byte, sendBuffer),
		filter: filter,
	}
}

// Register adds conn. After Run has returned the connection's send channel
// is closed instead.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Publish queues m for every interested connection. It never blocks; when
// the hub is backed up the message is dropped.
func (h *Hub) Publish(m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		slog.Error("stream marshal failed", "kind", m.Kind, "error", err)
		return
	}
	select {
	case h.broadcast <- outbound{msg: &m, data: data}:
	default:
		slog.Warn("stream hub backed up, dropping message", "kind", m.Kind)
	}
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Attach forwards every event emitted on bus to the hub.
func (h *Hub) Attach(bus *events.Bus) events.Subscription {
	return bus.On(events.Wildcard, func(ctx context.Context, ev types.Event) error {
		h.Publish(Message{Kind: KindEvent, Event: &ev})
		return nil
	})
}

// Notify forwards a toast to every client. It satisfies notify.Sink.
func (h *Hub) Notify(ctx context.Context, toast types.Toast) error {
	h.Publish(Message{Kind: KindToast, Toast: &toast})
	return nil
}
