package ws

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/noughts/internal/model"
)

// Keepalive and framing limits
var (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed between pongs before the peer is considered gone
	pongWait = 60 * time.Second

	// Time between pings; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Largest frame accepted from a client
	maxMessageSize int64 = 4096
)

// Buffer size for outgoing messages
const sendBufferSize = 256

// Handler receives client frames and the disconnect notification
type Handler interface {
	Submit(connID model.ConnectionID, data []byte) bool
	SubmitDisconnect(connID model.ConnectionID) bool
}

// Client is one websocket connection
type Client struct {
	id          model.ConnectionID
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	connectedAt time.Time
	logger      *slog.Logger
	closeOnce   sync.Once
}

// NewClient creates a client for an upgraded connection
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	id := model.ConnectionID(uuid.NewString())
	return &Client{
		id:          id,
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: hub.clock.Now(),
		logger:      hub.logger.With(slog.String("connection_id", string(id))),
	}
}

// ID returns the connection's identifier
func (c *Client) ID() model.ConnectionID {
	return c.id
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients are served from another origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and runs the client until it disconnects
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, handler Handler) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		hub.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := NewClient(hub, conn)
	if !hub.Register(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	client.readPump(handler)
}

// readPump forwards frames to the handler. When it returns the connection
// is unregistered and the disconnect cascade is queued.
func (c *Client) readPump(handler Handler) {
	defer func() {
		c.hub.Unregister(c)
		handler.SubmitDisconnect(c.id)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read failed", slog.String("error", err.Error()))
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.logger.Debug("ws ignoring non-text frame", slog.Int("frame_type", messageType))
			continue
		}
		if !handler.Submit(c.id, message) {
			return
		}
	}
}

// writePump drains the send channel and pings the peer
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}
