package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 12 * time.Second
	pingPeriod     = 3 * time.Second // must be < pongWait
	maxMessageSize = 8192
	sendQueueSize  = 64
)

// Client is one live connection. The gateway owns the record; the registry
// and the relay only ever reference it by ID.
type Client struct {
	ID      string // process-unique, assigned at accept time
	UserID  string // from the identity collaborator
	rawConn *websocket.Conn

	out  chan []byte
	done chan struct{}

	mu          sync.Mutex
	displayName string // set on join, immutable afterwards
	roomID      string // empty until joined

	closeOnce sync.Once
}

func newClient(id, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:      id,
		UserID:  userID,
		rawConn: conn,
		out:     make(chan []byte, sendQueueSize),
		done:    make(chan struct{}),
	}
}

func (c *Client) name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayName
}

func (c *Client) room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) setJoined(roomID, displayName string) {
	c.mu.Lock()
	c.roomID = roomID
	c.displayName = displayName
	c.mu.Unlock()
}

// enqueue hands one outbound envelope to the write pump. It never blocks: a
// consumer that stopped reading overflows its queue and loses frames until
// the transport pinger reaps the connection.
func (c *Client) enqueue(event string, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		zap.L().Warn("ws.marshal", zap.String("event", event), zap.Error(err))
		return
	}
	data, err := json.Marshal(Envelope{Event: event, Body: raw})
	if err != nil {
		zap.L().Warn("ws.marshal", zap.String("event", event), zap.Error(err))
		return
	}
	select {
	case c.out <- data:
	case <-c.done:
	default:
		zap.L().Warn("ws.queue_full", zap.String("conn", c.ID), zap.String("event", event))
	}
}

// writePump is the single writer for the connection. Pings ride the same
// goroutine so writes are never interleaved.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.rawConn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.rawConn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-c.out:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.rawConn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.rawConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
