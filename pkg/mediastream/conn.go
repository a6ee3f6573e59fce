package mediastream

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn wraps a websocket carrying media-stream events. Reads must come from
// a single goroutine; writes are serialized internally so the egress path
// and control frames may write concurrently.
type Conn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an upgraded websocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// ReadEvent blocks until the next event arrives. It returns an error when
// the peer closes the connection or Close is called.
func (c *Conn) ReadEvent() (*Event, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("mediastream: read: %w", err)
	}
	return ParseEvent(data)
}

// WriteMedia emits one μ-law frame addressed to the stream handle.
func (c *Conn) WriteMedia(streamSID string, mulaw []byte) error {
	return c.WriteEvent(NewMediaEvent(streamSID, mulaw))
}

// WriteEvent sends an event to the peer.
func (c *Conn) WriteEvent(ev *Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(ev); err != nil {
		return fmt.Errorf("mediastream: write: %w", err)
	}
	return nil
}

// Close closes the underlying websocket. Safe to call more than once and
// from any goroutine; it also unblocks a pending ReadEvent.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
