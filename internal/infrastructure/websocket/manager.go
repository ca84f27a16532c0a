package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"souqbalady/internal/domain/entity"
	"souqbalady/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 32
)

// Client is one authenticated connection. A user may hold several.
type Client struct {
	Session *entity.Session
	Conn    *websocket.Conn
	Send    chan []byte
}

func NewClient(session *entity.Session, conn *websocket.Conn) *Client {
	return &Client{
		Session: session,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
	}
}

func (c *Client) UserID() string {
	return c.Session.UID
}

type delivery struct {
	userID  string
	target  *Client
	payload []byte
}

type onlineQuery struct {
	userID string
	reply  chan bool
}

// Manager owns the registry of live connections. Only the goroutine started
// by Start touches the registry.
type Manager struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	online     chan onlineQuery
	handler    InboundHandler
	done       chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		online:     make(chan onlineQuery),
		done:       make(chan struct{}),
	}
}

// SetHandler installs the handler for messages sent by clients. It must be
// called before Start.
func (m *Manager) SetHandler(h InboundHandler) {
	m.handler = h
}

func (m *Manager) Start(ctx context.Context) {
	go m.run(ctx)
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	for {
		select {
		case client := <-m.register:
			conns, ok := m.clients[client.UserID()]
			if !ok {
				conns = make(map[*Client]struct{})
				m.clients[client.UserID()] = conns
			}
			conns[client] = struct{}{}
			logger.Debug("WebSocket client registered: %s", client.UserID())

		case client := <-m.unregister:
			m.remove(client)

		case d := <-m.deliver:
			for client := range m.clients[d.userID] {
				if d.target != nil && d.target != client {
					continue
				}
				select {
				case client.Send <- d.payload:
				default:
					logger.Warn("WebSocket send buffer full for %s, dropping connection", d.userID)
					m.remove(client)
				}
			}

		case q := <-m.online:
			q.reply <- len(m.clients[q.userID]) > 0

		case <-ctx.Done():
			for _, conns := range m.clients {
				for client := range conns {
					close(client.Send)
				}
			}
			m.clients = map[string]map[*Client]struct{}{}
			return
		}
	}
}

func (m *Manager) remove(client *Client) {
	conns, ok := m.clients[client.UserID()]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.Send)
	if len(conns) == 0 {
		delete(m.clients, client.UserID())
	}
	logger.Debug("WebSocket client unregistered: %s", client.UserID())
}

// Register adds client to the registry. It returns false once the manager has stopped.
func (m *Manager) Register(client *Client) bool {
	select {
	case m.register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) Unregister(client *Client) {
	select {
	case m.unregister <- client:
	case <-m.done:
	}
}

// SendToUser queues payload for every connection of userID.
func (m *Manager) SendToUser(userID string, payload []byte) {
	select {
	case m.deliver <- delivery{userID: userID, payload: payload}:
	case <-m.done:
	}
}

func (m *Manager) SendJSON(userID string, message WSMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	m.SendToUser(userID, payload)
	return nil
}

// sendToClient queues message for a single connection.
func (m *Manager) sendToClient(client *Client, message WSMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		logger.Error("WebSocket: failed to marshal %s message: %v", message.Type, err)
		return
	}
	select {
	case m.deliver <- delivery{userID: client.UserID(), target: client, payload: payload}:
	case <-m.done:
	}
}

func (m *Manager) IsOnline(userID string) bool {
	reply := make(chan bool, 1)
	select {
	case m.online <- onlineQuery{userID: userID, reply: reply}:
		return <-reply
	case <-m.done:
		return false
	}
}

// ReadPump reads client messages until the connection closes.
func (c *Client) ReadPump(ctx context.Context, m *Manager) {
	defer func() {
		m.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for %s: %v", c.UserID(), err)
			}
			return
		}

		m.HandleClientMessage(ctx, c, message)
	}
}

// WritePump writes queued messages and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket write error for %s: %v", c.UserID(), err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
