package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"uno-service/internal/resolver"
	"uno-service/internal/service/engine"
	"uno-service/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readDeadline  = 60 * time.Second
	pingEvery     = 25 * time.Second
	writeWait     = 5 * time.Second
	outboundQueue = 32
)

type client struct {
	conn        *websocket.Conn
	connectorID string

	hub    *Hub
	engine *engine.Service
	names  *resolver.Resolver

	outbound chan Frame
	done     chan struct{}

	mu      sync.Mutex
	pending map[string]chan Frame
	closed  bool
}

func newClient(conn *websocket.Conn, connectorID string, hub *Hub, svc *engine.Service, names *resolver.Resolver) *client {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})
	return &client{
		conn:        conn,
		connectorID: connectorID,
		hub:         hub,
		engine:      svc,
		names:       names,
		outbound:    make(chan Frame, outboundQueue),
		done:        make(chan struct{}),
		pending:     make(map[string]chan Frame),
	}
}

func (c *client) run() {
	c.hub.register(c)
	go c.writePump()
	c.readPump()
}

// request queues a frame and blocks until its ack arrives or the timeout
// elapses.
func (c *client) request(f Frame, timeout time.Duration) (Frame, error) {
	ch := make(chan Frame, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Frame{}, errors.New("connector gone")
	}
	c.pending[f.ID] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, f.ID)
		c.mu.Unlock()
	}()

	c.send(f)
	select {
	case ack := <-ch:
		return ack, nil
	case <-time.After(timeout):
		return Frame{}, errors.New("ack timeout")
	case <-c.done:
		return Frame{}, errors.New("connector gone")
	}
}

func (c *client) send(f Frame) {
	select {
	case c.outbound <- f:
	case <-c.done:
	default:
		logger.Log.Warn("connector outbound queue full",
			zap.String("connectorID", c.connectorID),
			zap.String("type", f.Type),
		)
	}
}

func (c *client) close() {
	c.conn.Close()
}

func (c *client) readPump() {
	defer func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
		c.hub.unregister(c)
		c.conn.Close()
	}()

	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			logger.Log.Info("connector read error",
				zap.String("connectorID", c.connectorID),
				zap.Error(err),
			)
			return
		}

		switch f.Type {
		case "ack":
			c.mu.Lock()
			if ch, ok := c.pending[f.ID]; ok {
				ch <- f
			}
			c.mu.Unlock()
		case "action":
			if f.Action != nil {
				c.handleAction(*f.Action)
			}
		case "ping":
			c.send(Frame{Type: "pong", ID: f.ID})
		default:
			logger.Log.Warn("unknown connector frame",
				zap.String("connectorID", c.connectorID),
				zap.String("type", f.Type),
			)
		}
	}
}

// handleAction feeds one user event into the engine. A rule violation is
// whispered back to the acting player; game state is unchanged by it.
func (c *client) handleAction(a engine.Action) {
	ctx := context.Background()
	c.hub.noteChannel(a.ChannelID, c.connectorID)
	if a.UserName != "" {
		c.names.Learn(ctx, a.GuildID, a.UserID, a.UserName)
	}

	if err := c.engine.Dispatch(ctx, a); err != nil {
		c.send(Frame{
			Type:      "whisper",
			ChannelID: a.ChannelID,
			UserID:    a.UserID,
			Text:      err.Error(),
		})
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f := <-c.outbound:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				logger.Log.Info("connector write error",
					zap.String("connectorID", c.connectorID),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
