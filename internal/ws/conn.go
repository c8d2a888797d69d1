package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn wraps a live duplex channel. Writes are serialized through writeMu
// (gorilla allows one concurrent writer) and bounded by writeTimeout; a
// write that misses the deadline marks the connection dead.
type Conn struct {
	id           string
	ws           *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
	closed       atomic.Bool
}

func newConn(wsc *websocket.Conn, writeTimeout time.Duration) *Conn {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Conn{
		id:           uuid.NewString(),
		ws:           wsc,
		writeTimeout: writeTimeout,
	}
}

// ID returns the connection's session id.
func (c *Conn) ID() string { return c.id }

// SendJSON marshals v and writes it as a single text frame.
func (c *Conn) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying socket. Safe to call more than once.
func (c *Conn) Close() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.ws.Close()
	}
}
