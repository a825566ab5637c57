package ws

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ShoaibAJ01/zameerrealstates/internal/metrics"
)

// Client is one websocket connection. uid is empty until the connection
// authenticates; id distinguishes connections of the same user so the hub
// can unbind conditionally.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	id      string
	uid     string
	limiter *rate.Limiter

	// sendMu serializes enqueue against close so a broadcast racing the
	// read loop's teardown cannot hit a closed channel.
	sendMu sync.Mutex
	closed bool

	pingInterval  time.Duration
	writeDeadline time.Duration
}

func newClient(conn *websocket.Conn, rps int, pingInterval, writeDeadline time.Duration) *Client {
	return &Client{
		conn:          conn,
		send:          make(chan []byte, 256),
		id:            uuid.NewString(),
		limiter:       rate.NewLimiter(rate.Limit(rps), rps),
		pingInterval:  pingInterval,
		writeDeadline: writeDeadline,
	}
}

// enqueue hands data to the write pump. A full buffer or a closed client
// drops the event: delivery to a dead or slow connection fails silently.
func (c *Client) enqueue(data []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		metrics.DroppedDeliveries.Inc()
	}
}

func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeDeadline))
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
