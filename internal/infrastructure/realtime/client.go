package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClientClosed is returned when sending to a closed or stalled client.
var ErrClientClosed = errors.New("realtime: client closed")

// State is the lifecycle of one connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// ClientOptions bounds per-connection resources.
type ClientOptions struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 4096
	}
	return o
}

// pingPeriod must stay below PongWait so a live peer never times out.
func (o ClientOptions) pingPeriod() time.Duration {
	return o.PongWait * 9 / 10
}

// Client is one websocket connection. Only the write pump writes to conn.
type Client struct {
	id    string
	conn  *websocket.Conn
	hub   *Hub
	opts  ClientOptions
	send  chan []byte
	done  chan struct{}
	state atomic.Int32
	once  sync.Once
}

func newClient(id string, conn *websocket.Conn, hub *Hub, opts ClientOptions) *Client {
	return &Client{
		id:   id,
		conn: conn,
		hub:  hub,
		opts: opts,
		send: make(chan []byte, opts.SendBuffer),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) State() State { return State(c.state.Load()) }

// Send queues a tagged message for this client only.
func (c *Client) Send(msgType string, payload any) error {
	msg, err := Encode(msgType, payload)
	if err != nil {
		return err
	}
	if !c.enqueue(msg) {
		c.Close()
		return ErrClientClosed
	}
	return nil
}

func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close moves the client to Closed and releases the connection. It is safe to
// call more than once and from any goroutine.
func (c *Client) Close() {
	c.once.Do(func() {
		prev := State(c.state.Swap(int32(StateClosed)))
		close(c.done)
		c.hub.unregister(c, prev == StateOpen)
	})
}

// Run pumps the connection until it closes. Each inbound frame is passed to
// onMessage from the read goroutine.
func (c *Client) Run(onMessage func(*Client, []byte)) {
	go c.writePump()
	c.readPump(onMessage)
}

func (c *Client) readPump(onMessage func(*Client, []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("client_id", c.id).Msg("websocket read error")
			}
			return
		}
		onMessage(c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
