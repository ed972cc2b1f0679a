package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"parlor/internal/app/user"
	"parlor/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame.
	maxFrameSize = 4096

	// sendQueueSize is the per-connection outbound buffer depth.
	sendQueueSize = 256

	// CloseCodeSuperseded is a custom WebSocket close code (4000-4999
	// range) signaling that the session was replaced by a new connection.
	CloseCodeSuperseded = 4001
)

// Client adapts a gorilla WebSocket connection to the engine's Conn
// interface. It owns the read and write pumps and the buffered send queue
// that decouples fanout from socket writes.
type Client struct {
	svc  *Service
	conn *websocket.Conn

	profile user.Profile
	sess    *Session

	// send queues serialized events waiting to be written to the socket.
	send chan []byte

	// mu guards closed so fanout never writes to a closed queue.
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewClient wraps an upgraded WebSocket connection for the given
// authenticated profile.
func NewClient(svc *Service, wsConn *websocket.Conn, profile user.Profile) *Client {
	clientLogger := logx.Logger().With().
		Str("component", "client").
		Str("username", profile.Username).
		Logger()

	return &Client{
		svc:     svc,
		conn:    wsConn,
		profile: profile,
		send:    make(chan []byte, sendQueueSize),
		logger:  clientLogger,
	}
}

// Run registers the connection with the engine and then blocks reading
// inbound frames until the connection drops. Cleanup happens through
// Service.OnDisconnect on the way out. The caller must have started
// WritePump first.
func (c *Client) Run() {
	c.sess = c.svc.Connect(c, c.profile)
	c.readPump()
}

// readPump reads frames off the socket and hands them to the dispatch
// machine. It also services the heartbeat (pong) deadline.
func (c *Client) readPump() {
	defer func() {
		c.svc.OnDisconnect(c.sess)
		c.shutdownSend()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in read pump")
		}
	}()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Unexpected connection close")
			}
			return
		}

		c.svc.OnAction(c.sess, raw)
	}
}

// WritePump drains the send queue onto the socket and keeps the heartbeat
// alive. It terminates when the queue closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in write pump")
		}
	}()

	for {
		select {
		case data, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug().Err(err).Msg("Error writing close message")
				}
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn().Err(err).Msg("Error writing message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}

// Enqueue implements Conn. It never blocks: when the queue is full the
// frame is dropped and the slow connection eventually dies on heartbeat.
func (c *Client) Enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping event")
		return false
	}
}

// Kick implements Conn: it sends a close frame with CloseCodeSuperseded so
// the client can tell a replaced session apart from a normal close.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", CloseCodeSuperseded).
		Str("reason", reason).
		Msg("Kicking connection")

	closeMessage := websocket.FormatCloseMessage(CloseCodeSuperseded, reason)

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to write kick close frame")
	}

	c.shutdownSend()
}

// Close implements Conn: the write pump sends a normal close frame once
// the queue is drained.
func (c *Client) Close() {
	c.shutdownSend()
}

// shutdownSend marks the queue closed for producers and closes it exactly
// once so the write pump terminates.
func (c *Client) shutdownSend() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.closeOnce.Do(func() { close(c.send) })
}
