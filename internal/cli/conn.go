package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/protocol"
)

// ErrLoginRejected is returned when the server answers a login with loginError
var ErrLoginRejected = errors.New("login rejected")

const writeWait = 5 * time.Second

// Conn is a connection to the realtime gateway
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex

	// Set by Login
	ID   string
	Name string
}

// Dial opens a websocket to the gateway at wsURL
func Dial(ctx context.Context, wsURL string) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", wsURL, err)
	}
	return &Conn{ws: ws}, nil
}

// Send writes one message envelope. Safe for concurrent use.
func (c *Conn) Send(messageType protocol.MessageType, payload any) error {
	data, err := protocol.EncodeMessage(messageType, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Next blocks until the server sends a message
func (c *Conn) Next() (protocol.Envelope, error) {
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			return protocol.Envelope{}, err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		return protocol.Decode(data)
	}
}

// Login sends the secret and waits for the server's verdict
func (c *Conn) Login(secret string) error {
	if err := c.Send(protocol.MessageLogin, secret); err != nil {
		return err
	}

	for {
		env, err := c.Next()
		if err != nil {
			return err
		}
		switch model.EventType(env.Type) {
		case model.EventLoginSuccess:
			var success protocol.LoginSuccess
			if err := json.Unmarshal(env.Payload, &success); err != nil {
				return fmt.Errorf("parsing loginSuccess: %w", err)
			}
			c.ID, c.Name = success.ID, success.Name
			return nil
		case model.EventLoginError:
			var message string
			_ = json.Unmarshal(env.Payload, &message)
			return fmt.Errorf("%w: %s", ErrLoginRejected, message)
		}
	}
}

// Close sends a close frame and closes the socket
func (c *Conn) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.writeMu.Unlock()
	return c.ws.Close()
}

// isClosed reports whether err just means the connection ended
func isClosed(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, websocket.ErrCloseSent)
}
