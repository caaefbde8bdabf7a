package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/JMS2088/gablok/pkg/perimeter"
)

// writeTimeout bounds a single write to one client.
var writeTimeout = 3 * time.Second

// Message is what the hub sends to connected editors.
type Message struct {
	Type  string           `json:"type"`
	Event *perimeter.Event `json:"event,omitempty"`
}

// Hub fans messages out to every connected websocket client. Clients that
// cannot be written to are dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast writes message to every client. Writes happen outside the lock
// so a slow client does not stall Add, Remove or other broadcasts.
func (h *Hub) Broadcast(message []byte) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	var failed []*websocket.Conn
	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			failed = append(failed, conn)
		}
	}
	if len(failed) == 0 {
		return
	}

	h.mu.Lock()
	for _, conn := range failed {
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *Hub) send(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// Render asks every client to redraw. It has the shape of the engine's
// render hook.
func (h *Hub) Render() error {
	return h.send(Message{Type: "render"})
}

// Forward relays engine events to the clients until ctx is done or the
// channel closes.
func (h *Hub) Forward(ctx context.Context, events <-chan perimeter.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = h.send(Message{Type: "event", Event: &ev})
		}
	}
}
