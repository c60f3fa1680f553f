package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/moodlabs/moodchat/utils/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// Client is one websocket connection of an authenticated user. Inbound
// frames surface on Receive(); outbound frames go through SendMessage.
type Client struct {
	conn         *websocket.Conn
	userID       int
	clientID     string
	send         chan []byte
	receive      chan []byte
	incomingPing chan string
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	closed       bool
}

// NewClient creates a new websocket client for a connection owned by
// userID. clientID distinguishes multiple connections of the same user.
func NewClient(conn *websocket.Conn, userID int, clientID string) *Client {
	ctx := context.TODO()
	ctx = context.WithValue(ctx, "user_id", userID)
	ctx = context.WithValue(ctx, "client_id", clientID)
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:         conn,
		userID:       userID,
		clientID:     clientID,
		send:         make(chan []byte, 256),
		receive:      make(chan []byte, 16),
		incomingPing: make(chan string, 1),
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (c *Client) Run() {
	c.setupHandlers()

	go c.Ping()
	go c.readPump()
	go c.writePump()
}

// setupHandlers configures the websocket control-message handlers
func (c *Client) setupHandlers() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})

	// Respond to client pings with pongs
	c.conn.SetPingHandler(func(appData string) error {
		select {
		case c.incomingPing <- appData:
		default:
		}
		return c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	// Pongs extend the read deadline
	c.conn.SetPongHandler(func(appData string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}

// Close gracefully closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}

	if c.conn != nil {
		c.conn.Close()
	}

	close(c.send)
}

// IsClosed returns true if the client connection is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Context returns the client's context
func (c *Client) Context() context.Context {
	return c.ctx
}

// UserID returns the id of the user owning this connection.
func (c *Client) UserID() int {
	return c.userID
}

// ClientID returns the connection's unique identifier.
func (c *Client) ClientID() string {
	return c.clientID
}

// Receive exposes inbound application frames read off the connection.
// Consumers should select on Context().Done() as well; the channel
// stays open after shutdown.
func (c *Client) Receive() <-chan []byte {
	return c.receive
}

func (c *Client) Ping() {
	for {
		select {
		case <-c.incomingPing:
		case <-time.After(pingPeriod):
			if c.IsClosed() {
				return
			}

			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()

			if conn == nil {
				return
			}

			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				log.WithCtx(c.ctx).Error("Failed to send ping", zap.Error(err))
				c.Close()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// readPump reads inbound frames and hands them to Receive()
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		if c.IsClosed() {
			return
		}

		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}

		select {
		case c.receive <- message:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing websocket frames
func (c *Client) writePump() {
	defer c.Close()

	for {
		select {
		case message, ok := <-c.send:
			if c.IsClosed() {
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("Failed to write message", zap.Error(err))
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// SendMessage sends a frame to the client safely. The closed check
// and the channel send happen under the same lock Close takes before
// closing the channel, so a concurrent Close cannot slip in between.
func (c *Client) SendMessage(message []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- message:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		// Slow consumer, drop the connection. Close needs the write
		// lock, so it must run outside this read-locked section.
		go c.Close()
		return websocket.ErrCloseSent
	}
}
