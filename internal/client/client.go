package client

import (
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/devaloi/quoteboard/internal/domain"
	"github.com/devaloi/quoteboard/internal/hub"
	"github.com/devaloi/quoteboard/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size allowed from peer. Multi-line quotes can be long.
	maxMessageSize = 16 * 1024
)

// Client is a WebSocket client connected to the hub.
type Client struct {
	hub      *hub.Hub
	conn     *websocket.Conn
	send     chan []byte
	username string
	rooms    map[string]bool
	log      zerolog.Logger
}

// New creates a new Client.
func New(h *hub.Hub, conn *websocket.Conn, username string) *Client {
	return &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		username: username,
		rooms:    make(map[string]bool),
		log:      logging.L().With().Str("user", username).Logger(),
	}
}

// Username returns the client's username.
func (c *Client) Username() string {
	return c.username
}

// Send queues a message for the WebSocket writer. Messages are dropped when
// the client's buffer is full.
func (c *Client) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		c.log.Warn().Msg("send buffer full, dropping message")
	}
}

// ReadPump reads frames from the connection and routes them to the hub.
func (c *Client) ReadPump() {
	defer func() {
		for room := range c.rooms {
			c.hub.Unregister(c, room)
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("read error")
			}
			return
		}
		c.handleMessage(data)
	}
}

// WritePump writes queued messages and keepalive pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	msg, err := domain.DecodeMessage(data)
	if err != nil {
		c.sendError("invalid JSON")
		return
	}

	switch msg.Type {
	case domain.MsgJoin:
		c.join(msg.Room)
	case domain.MsgLeave:
		c.leave(msg.Room)
	case domain.MsgChat:
		c.chat(msg)
	default:
		c.sendError("unknown message type: " + msg.Type)
	}
}

// validRoom checks a room name before it is used as a partition key. The
// name becomes the part before the first slash of the sender identity, so it
// cannot contain one.
func (c *Client) validRoom(room string) bool {
	switch {
	case room == "":
		c.sendError("room name required")
		return false
	case strings.Contains(room, "/"):
		c.sendError("room name must not contain /")
		return false
	}
	return true
}

func (c *Client) join(room string) {
	if !c.validRoom(room) || c.rooms[room] {
		return
	}
	c.rooms[room] = true
	c.hub.Register(c, room)
}

func (c *Client) leave(room string) {
	if !c.validRoom(room) || !c.rooms[room] {
		return
	}
	delete(c.rooms, room)
	c.hub.Unregister(c, room)
}

// chat stamps the frame with this client's identity and hands it to the hub,
// which broadcasts it and offers it to the quote plugin.
func (c *Client) chat(msg domain.Message) {
	if msg.Room == "" || msg.Text == "" {
		c.sendError("room and text required")
		return
	}
	if !c.rooms[msg.Room] {
		c.sendError("not in room")
		return
	}
	msg.User = c.username
	msg.Timestamp = time.Now().UTC()
	c.hub.RouteMessage(msg, c)
}

func (c *Client) sendError(message string) {
	errMsg := domain.ErrorMessage{Type: domain.MsgError, Message: message}
	if data, err := domain.Encode(errMsg); err == nil {
		c.Send(data)
	}
}
