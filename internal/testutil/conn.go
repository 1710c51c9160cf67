package testutil

import (
	"encoding/json"
	"sync"

	"github.com/mcoot/bingohall/internal/model"
)

// FakeConn is an in-memory connection that records everything sent to it
type FakeConn struct {
	id string

	mu          sync.Mutex
	sent        [][]byte
	pings       int
	closed      bool
	closeCode   int
	closeReason string
	sendErr     error
}

// NewFakeConn creates a fake connection with the given id
func NewFakeConn(id string) *FakeConn {
	return &FakeConn{id: id}
}

func (c *FakeConn) ID() string {
	return c.id
}

func (c *FakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return model.ErrConnectionClosed
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, data)
	return nil
}

func (c *FakeConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return model.ErrConnectionClosed
	}
	c.pings++
	return nil
}

func (c *FakeConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return model.ErrConnectionClosed
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	return nil
}

// FailSends makes every subsequent Send return err
func (c *FakeConn) FailSends(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

// Messages returns every message sent so far, decoded as generic maps
func (c *FakeConn) Messages() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]map[string]any, 0, len(c.sent))
	for _, data := range c.sent {
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err == nil {
			result = append(result, msg)
		}
	}
	return result
}

// Types returns the type field of every message sent so far, in order
func (c *FakeConn) Types() []string {
	msgs := c.Messages()
	types := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		t, _ := msg["type"].(string)
		types = append(types, t)
	}
	return types
}

// Last returns the most recent message of the given type, or nil
func (c *FakeConn) Last(msgType string) map[string]any {
	msgs := c.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i]["type"] == msgType {
			return msgs[i]
		}
	}
	return nil
}

// Count returns how many messages of the given type were sent
func (c *FakeConn) Count(msgType string) int {
	n := 0
	for _, t := range c.Types() {
		if t == msgType {
			n++
		}
	}
	return n
}

// Reset discards recorded messages
func (c *FakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}

func (c *FakeConn) Pings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// CloseInfo returns the close code and reason, if closed
func (c *FakeConn) CloseInfo() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode, c.closeReason
}
