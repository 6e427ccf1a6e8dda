package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"vexachat/pkg/logger"
)

// Client is one WebSocket connection streaming message snapshots for a
// single conversation.
type Client struct {
	ConversationID string
	Conn           *websocket.Conn
	Send           chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(conversationID string, conn *websocket.Conn) *Client {
	return &Client{
		ConversationID: conversationID,
		Conn:           conn,
		Send:           make(chan []byte, 8),
	}
}

// Manager tracks active snapshot streams.
type Manager struct {
	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's main loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client] = true
				m.mutex.Unlock()
				logger.Debug("Stream registered for conversation %s", client.ConversationID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if _, ok := m.clients[client]; ok {
					delete(m.clients, client)
					client.close()
				}
				m.mutex.Unlock()
				logger.Debug("Stream unregistered for conversation %s", client.ConversationID)

			case <-ctx.Done():
				m.mutex.Lock()
				for client := range m.clients {
					client.close()
					delete(m.clients, client)
				}
				m.mutex.Unlock()
				return
			}
		}
	}()
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Queue hands a snapshot to the write pump without blocking the notifier's
// dispatch. A backed-up connection drops the snapshot; the next delivery
// carries the full state anyway. A late delivery after unregister is a
// no-op.
func (c *Client) Queue(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- payload:
	default:
	}
}

// ReadPump consumes the connection until the peer closes it. Incoming frames
// carry no protocol; the stream is one-way.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error: %v", err)
			}
			return
		}
	}
}

// WritePump sends queued snapshots to the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn("WebSocket write error: %v", err)
			return
		}
	}
}
