package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection represents one live WebSocket link from a client. A
// connection may be associated with at most one room at a time; the
// association lives in the Registry, not here.
type Connection struct {
	ID       string
	UserID   int64
	Username string

	Conn *websocket.Conn
	Send chan []byte

	ConnectedAt time.Time
	LastPing    time.Time

	// sendMu serializes queue writes against closeSend. The router may
	// be mid-fanout when a pump tears the connection down; every send
	// must observe the closed flag under the same lock that sets it.
	sendMu sync.Mutex
	closed bool
}

// trySend queues data without blocking. It reports false when the
// queue is full or the connection has already been closed.
func (c *Connection) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound queue exactly once. Both pumps and the
// router may race to tear a connection down.
func (c *Connection) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	StoreTimeout    time.Duration
	MaxMessageSize  int64
	SendBufferSize  int
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		StoreTimeout:    5 * time.Second,
		MaxMessageSize:  4096,
		SendBufferSize:  256,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}
