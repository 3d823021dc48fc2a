// Package server manages individual WebSocket clients, handling read/write
// pumps and the single close path for each connection.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomrelay/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client represents one live WebSocket connection. It implements
// registry.Peer: frames handed to Send are queued on a bounded channel and
// written by the client's write pump.
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	relay          *Relay
	addr           string
	maxMessageSize int64
	ctx            context.Context
	log            *slog.Logger

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewClient creates a Client for conn with a fresh random id. The send
// channel holds up to sendBuffer frames; frames beyond that are dropped.
func NewClient(ctx context.Context, conn *websocket.Conn, hub *Hub, relay *Relay, addr string, maxMessageSize int64, sendBuffer int) *Client {
	if conn != nil {
		conn.SetReadLimit(maxMessageSize)
	}

	id := uuid.NewString()
	log := logging.FromContext(ctx).With(logging.Conn(id), logging.Remote(addr))

	return &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, sendBuffer),
		hub:            hub,
		relay:          relay,
		addr:           addr,
		maxMessageSize: maxMessageSize,
		ctx:            logging.WithContext(ctx, log),
		log:            log,
	}
}

// ID returns the client's opaque identity. It is never sent to other clients.
func (c *Client) ID() string {
	return c.id
}

// Addr returns the remote address the connection was accepted from.
func (c *Client) Addr() string {
	return c.addr
}

// GetSendChan returns the client's send channel for reading outgoing messages.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// Send queues frame for delivery without blocking. It returns false when the
// client is closed or its buffer is full; the frame is then dropped.
func (c *Client) Send(frame []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		c.log.Warn("send buffer full; dropping frame", slog.Int("buffered", len(c.send)))
		return false
	}
}

// Close is the single terminal event for a connection. The first call marks
// the client closed, stops its write pump, drops it from the hub and evicts
// its room membership. Later calls do nothing.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		// The client lock is released first: Remove pushes frames to other
		// members while holding their room's lock.
		if c.hub != nil {
			c.hub.unregister(c)
		}
		if c.relay != nil {
			c.relay.Disconnect(c.ctx, c)
		}
	})
}

// IsClosed reports whether Close has run.
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("error setting initial read deadline", logging.Err(err))
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("error setting read deadline in pong handler", logging.Err(err))
		}
		return nil
	})
}

// handleReadError logs appropriate error messages based on the error type.
// Every read error ends the read loop.
func (c *Client) handleReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("message exceeded maximum size", slog.Int64("max_bytes", c.maxMessageSize))

	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		c.log.Info("client disconnected", logging.Err(err))

	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Info("client connection closed", logging.Err(err))

	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Warn("unexpected websocket close", logging.Err(err))

	default:
		c.log.Warn("websocket read error", logging.Err(err))
	}
}

// readPump applies inbound frames in arrival order until the transport
// fails, then runs the close path.
func (c *Client) readPump() {
	defer func() {
		c.Close()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Warn("error closing connection in readPump", logging.Err(err))
		}
	}()

	c.setupReadConnection()

	for {
		messageType, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		if messageType != websocket.TextMessage {
			c.Send(invalidFrame)
			continue
		}

		c.relay.HandleFrame(c.ctx, c, rawMessage)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("error closing connection in writePump", logging.Err(err))
	}
}

// handleMessage processes outgoing messages and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("error setting write deadline", logging.Err(err))
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	return c.writeTextMessage(message)
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("error writing close message", logging.Err(err))
	}
	return false
}

// writeTextMessage writes one frame as one WebSocket text message. Frames are
// never batched: each message a client receives decodes as a single frame.
func (c *Client) writeTextMessage(message []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("error writing message", logging.Err(err))
		}
		return false
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("error setting write deadline for ping", logging.Err(err))
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("error writing ping message", logging.Err(err))
		}
		return false
	}
	return true
}
