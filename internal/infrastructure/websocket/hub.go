// Package websocket implements the duplex streaming transport
// alternative to SSE (SPEC_FULL.md §6), grounded on the teacher's
// hub/client pattern (internal/infrastructure/websocket/{hub,client}.go)
// generalized from the teacher's chat-message broadcast to the
// orchestrator's stream.Event envelope.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/graflow/graflow/internal/stream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
)

// Client wraps one upgraded websocket connection pumping stream.Events
// out and cancellation requests in.
type Client struct {
	conn   *websocket.Conn
	cancel func()
	mu     sync.Mutex
}

// Serve upgrades r into a websocket connection, then streams every event
// from events until it's closed or the connection drops. cancel is
// invoked if the client sends a {"type":"cancel"} message.
func Serve(w http.ResponseWriter, r *http.Request, events <-chan stream.Event, cancel func()) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{conn: conn, cancel: cancel}
	defer conn.Close()

	done := make(chan struct{})
	go c.readLoop(done)

	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := c.writeJSON(event); err != nil {
				return err
			}
			if event.Type == stream.EventWorkflowComplete || event.Type == stream.EventError {
				return nil
			}
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return err
			}
		case <-done:
			return nil
		}
	}
}

func (c *Client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *Client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *Client) readLoop(done chan struct{}) {
	defer close(done)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(raw, &msg) == nil && msg.Type == "cancel" && c.cancel != nil {
			c.cancel()
		}
	}
}
