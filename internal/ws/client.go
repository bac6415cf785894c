package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// Client wraps one live WebSocket connection. All writes go through a
// buffered send channel drained by a single write pump, so frames enqueued
// for one connection are written in FIFO order and a slow socket never
// blocks the goroutine that fans out an event.
type Client struct {
	ID     string
	UserID int64

	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	log  *zap.Logger
}

func NewClient(userID int64, conn *websocket.Conn, sendBuffer int, log *zap.Logger) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		log:    log,
	}
}

// Enqueue hands a payload to the write pump. It never blocks: a closed
// connection or a full buffer drops the frame and returns false. Dropped
// frames are transient delivery failures; callers log and move on.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		c.log.Warn("send buffer full, dropping frame",
			zap.String("conn_id", c.ID),
			zap.Int64("user_id", c.UserID))
		return false
	}
}

// WritePump writes queued frames until the connection closes. It must be
// the only goroutine writing to the underlying connection.
func (c *Client) WritePump() {
	defer c.Close()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug("write failed, closing connection",
					zap.String("conn_id", c.ID),
					zap.Int64("user_id", c.UserID),
					zap.Error(err))
				return
			}
		}
	}
}

// Close shuts the connection down. Safe to call from multiple goroutines;
// only the first call has any effect. Closing the underlying socket also
// unblocks the read loop in the handler.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
