package websocket

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/undangan/internal/timefmt"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client is one invitation page's connection. It receives countdown ticks
// for its own event and change notifications for its slug.
type Client struct {
	hub     *Hub
	conn    *ws.Conn
	send    chan []byte
	slug    string
	session string
	target  time.Time
}

func NewClient(hub *Hub, conn *ws.Conn, sub Subject) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		slug:    sub.Slug,
		session: sub.Session,
		target:  sub.Target,
	}
}

// Run registers the client, starts its countdown and the write pump, and
// runs the read pump. It blocks until the connection is closed.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !c.target.IsZero() {
		countdown := timefmt.NewCountdown()
		countdown.Start(ctx, c.target, c.tick)
		// Stopped before Unregister closes send.
		defer countdown.Stop()
	}

	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Client) tick(rem timefmt.Remaining) {
	data, err := json.Marshal(CountdownMessage(rem))
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump reads and discards all incoming messages. It returns on error
// (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
