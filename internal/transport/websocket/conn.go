package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/bingohall/internal/model"
	"github.com/mcoot/bingohall/internal/notify"
)

// Handler receives connection lifecycle events and inbound payloads
type Handler interface {
	Attach(conn notify.Connection) error
	HandleMessage(conn notify.Connection, data []byte) error
	Pong(conn notify.Connection) error
	Detach(conn notify.Connection) error
}

// Conn adapts a websocket connection to notify.Connection.
// One goroutine reads frames into the Handler; another drains a bounded
// send buffer onto the socket.
type Conn struct {
	id      string
	ws      *websocket.Conn
	handler Handler
	config  Config
	logger  *slog.Logger

	send  chan []byte
	pings chan struct{}
	done  chan struct{}

	mu          sync.Mutex
	closed      bool
	closeCode   int
	closeReason string
}

// Ensure Conn implements notify.Connection
var _ notify.Connection = (*Conn)(nil)

// NewConn wraps an upgraded websocket connection
func NewConn(id string, ws *websocket.Conn, handler Handler, config Config, logger *slog.Logger) *Conn {
	return &Conn{
		id:      id,
		ws:      ws,
		handler: handler,
		config:  config,
		logger:  logger.With(slog.String("conn_id", id)),
		send:    make(chan []byte, config.SendBufferSize),
		pings:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues data for the write pump without blocking
func (c *Conn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return model.ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return model.ErrSendBufferFull
	}
}

// Ping asks the write pump to send a ping control frame
func (c *Conn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return model.ErrConnectionClosed
	}
	select {
	case c.pings <- struct{}{}:
	default:
		// One is already pending
	}
	return nil
}

// Close flushes queued messages, sends a close frame and closes the socket
func (c *Conn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return model.ErrConnectionClosed
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	close(c.done)
	return nil
}

// markClosed is used when the peer went away; no close frame is sent
func (c *Conn) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// Start attaches the connection to its handler and runs both pumps
func (c *Conn) Start() error {
	if err := c.handler.Attach(c); err != nil {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server unavailable"),
			time.Now().Add(c.config.WriteWait))
		_ = c.ws.Close()
		return err
	}
	go c.writePump()
	go c.readPump()
	return nil
}

func (c *Conn) readPump() {
	defer func() {
		c.markClosed()
		if err := c.handler.Detach(c); err != nil && !errors.Is(err, model.ErrCoordinatorClosed) {
			c.logger.Warn("detach failed", slog.Any("error", err))
		}
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(c.config.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		return c.handler.Pong(c)
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Debug("read error", slog.Any("error", err))
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		if err := c.handler.HandleMessage(c, data); err != nil {
			c.logger.Debug("dropping connection", slog.Any("error", err))
			return
		}
	}
}

func (c *Conn) writePump() {
	defer func() {
		_ = c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(message); err != nil {
				c.markClosed()
				return
			}
		case <-c.pings:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.markClosed()
				return
			}
		case <-c.done:
			c.flush()
			return
		}
	}
}

func (c *Conn) write(message []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
	return c.ws.WriteMessage(websocket.TextMessage, message)
}

// flush writes whatever is still queued, then the close frame if one was requested
func (c *Conn) flush() {
	// The write pump is the only reader of send
	for len(c.send) > 0 {
		if err := c.write(<-c.send); err != nil {
			return
		}
	}

	c.mu.Lock()
	code, reason := c.closeCode, c.closeReason
	c.mu.Unlock()
	if code == 0 {
		return
	}
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(c.config.WriteWait))
}
