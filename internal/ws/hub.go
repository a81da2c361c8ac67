// Package ws is the connector gateway. Platform adapters ("connectors")
// hold a websocket open to this service: user actions flow in, rendered
// game messages flow out as correlated request/ack frames.
package ws

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"uno-service/internal/service/engine"
	appErr "uno-service/pkg/errors"
	"uno-service/pkg/logger"
	"uno-service/pkg/utils/random"

	"go.uber.org/zap"
)

// Frame is the wire envelope in both directions.
type Frame struct {
	Type      string           `json:"type"`
	ID        string           `json:"id,omitempty"`
	ChannelID string           `json:"channelId,omitempty"`
	MessageID string           `json:"messageId,omitempty"`
	UserID    string           `json:"userId,omitempty"`
	Text      string           `json:"text,omitempty"`
	Message   *engine.Outgoing `json:"message,omitempty"`
	Action    *engine.Action   `json:"action,omitempty"`
	Error     string           `json:"error,omitempty"`
}

const (
	ackTimeout     = 5 * time.Second
	requestRetries = 1
)

// Hub tracks attached connectors and routes messaging calls to them. It
// is the engine's Messenger: delivery is best-effort with one retry, and
// failures past that are swallowed into the error channel rather than
// raised into game state.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]*client
	channels map[string]string // channelID -> connectorID, learned from actions

	errs chan error
}

func NewHub() *Hub {
	return &Hub{
		conns:    make(map[string]*client),
		channels: make(map[string]string),
		errs:     make(chan error, 16),
	}
}

// Errors exposes delivery failures for the bootstrap loop to drain.
func (h *Hub) Errors() <-chan error {
	return h.errs
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.conns[c.connectorID]; ok {
		prev.close()
	}
	h.conns[c.connectorID] = c
	logger.Log.Info("connector attached", zap.String("connectorID", c.connectorID))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.conns[c.connectorID]; ok && cur == c {
		delete(h.conns, c.connectorID)
		logger.Log.Info("connector detached", zap.String("connectorID", c.connectorID))
	}
}

// noteChannel remembers which connector serves a channel, so outbound
// frames for it are routed back over the same connection.
func (h *Hub) noteChannel(channelID, connectorID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.channels[channelID] = connectorID
}

func (h *Hub) connectorFor(channelID string) (*client, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if id, ok := h.channels[channelID]; ok {
		if c, ok := h.conns[id]; ok {
			return c, nil
		}
	}
	for _, c := range h.conns {
		return c, nil
	}
	return nil, appErr.ErrNoConnector
}

// request sends a frame and waits for its ack, retrying once. A failure
// past the retry is reported on the error channel and returned.
func (h *Hub) request(f Frame) (Frame, error) {
	var lastErr error
	for attempt := 0; attempt <= requestRetries; attempt++ {
		c, err := h.connectorFor(f.ChannelID)
		if err != nil {
			lastErr = err
			break
		}
		f.ID = random.Code(12)
		ack, err := c.request(f, ackTimeout)
		if err == nil {
			if ack.Error != "" {
				lastErr = errors.New(ack.Error)
				continue
			}
			return ack, nil
		}
		lastErr = err
	}
	h.report(fmt.Errorf("%s to %s failed: %w", f.Type, f.ChannelID, lastErr))
	return Frame{}, lastErr
}

func (h *Hub) report(err error) {
	select {
	case h.errs <- err:
	default:
		logger.Log.Warn("delivery error channel full", zap.Error(err))
	}
}

// Send implements engine.Messenger.
func (h *Hub) Send(channelID string, msg engine.Outgoing) (string, error) {
	ack, err := h.request(Frame{Type: "send", ChannelID: channelID, Message: &msg})
	if err != nil {
		return "", err
	}
	return ack.MessageID, nil
}

func (h *Hub) Edit(channelID, messageID string, msg engine.Outgoing) error {
	_, err := h.request(Frame{Type: "edit", ChannelID: channelID, MessageID: messageID, Message: &msg})
	return err
}

// Delete and Whisper are fire-and-forget; nothing in the engine depends
// on their outcome.
func (h *Hub) Delete(channelID, messageID string) error {
	c, err := h.connectorFor(channelID)
	if err != nil {
		return err
	}
	c.send(Frame{Type: "delete", ChannelID: channelID, MessageID: messageID})
	return nil
}

func (h *Hub) Whisper(channelID, userID, text string) error {
	c, err := h.connectorFor(channelID)
	if err != nil {
		return err
	}
	c.send(Frame{Type: "whisper", ChannelID: channelID, UserID: userID, Text: text})
	return nil
}
